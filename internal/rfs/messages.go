package rfs

// Protocol types. Each request type has a matching response type; both
// report the opcode they belong to through Op.
//
// Result fields follow the conventions of the host call they describe: a
// negative result (or -1 descriptor) signals failure and Status holds the
// errno. Status is 0 on success.
type (
	OpenRequest struct {
		Path  string
		Flags int32  // Open flags, as passed to open(2).
		Mode  uint32 // Permission bits used when creating a file.
	}
	OpenResponse struct {
		FD     int32 // Server-side descriptor; -1 on failure.
		Status Errno
	}

	ReadRequest struct {
		FD    int32
		Count uint32
	}
	// ReadResponse always carries a Count-byte data region on the wire, even
	// on failure. Only the first N bytes are meaningful.
	ReadResponse struct {
		N      int32
		Status Errno
		Data   []byte
	}

	WriteRequest struct {
		FD   int32
		Data []byte
	}
	WriteResponse struct {
		N      int32
		Status Errno
	}

	CloseRequest struct {
		FD int32
	}
	CloseResponse struct {
		Result int32
		Status Errno
	}

	LseekRequest struct {
		FD     int32
		Offset int64
		Whence int32
	}
	LseekResponse struct {
		Offset int64 // New offset; -1 on failure.
		Status Errno
	}

	// StatRequest carries the caller's stat buffer, which the server fills
	// and sends back.
	StatRequest struct {
		Path string
		Stat Stat
	}
	StatResponse struct {
		Result int32
		Status Errno
		Stat   Stat
	}

	UnlinkRequest struct {
		Path string
	}
	UnlinkResponse struct {
		Result int32
		Status Errno
	}

	GetdirentriesRequest struct {
		FD    int32
		Count uint32
		Base  int64 // Directory position, threaded through to the host call.
	}
	// GetdirentriesResponse is sent as a header frame followed by N raw bytes
	// of directory entries. The data frame is only sent when N > 0 and Status
	// is 0.
	GetdirentriesResponse struct {
		N      int32
		Status Errno
		Data   []byte
	}

	GetdirtreeRequest struct {
		Path string
	}
	// GetdirtreeResponse holds a serialized directory tree. An empty Tree
	// means the path could not be walked.
	GetdirtreeResponse struct {
		Tree []byte
	}
)

func (*OpenRequest) Op() Op           { return OpOpen }
func (*OpenResponse) Op() Op          { return OpOpen }
func (*ReadRequest) Op() Op           { return OpRead }
func (*ReadResponse) Op() Op          { return OpRead }
func (*WriteRequest) Op() Op          { return OpWrite }
func (*WriteResponse) Op() Op         { return OpWrite }
func (*CloseRequest) Op() Op          { return OpClose }
func (*CloseResponse) Op() Op         { return OpClose }
func (*LseekRequest) Op() Op          { return OpLseek }
func (*LseekResponse) Op() Op         { return OpLseek }
func (*StatRequest) Op() Op           { return OpStat }
func (*StatResponse) Op() Op          { return OpStat }
func (*UnlinkRequest) Op() Op         { return OpUnlink }
func (*UnlinkResponse) Op() Op        { return OpUnlink }
func (*GetdirentriesRequest) Op() Op  { return OpGetdirentries }
func (*GetdirentriesResponse) Op() Op { return OpGetdirentries }
func (*GetdirtreeRequest) Op() Op     { return OpGetdirtree }
func (*GetdirtreeResponse) Op() Op    { return OpGetdirtree }

// FailedResponse builds the response sent for req when it failed with
// status. Results are set to their failure values; read responses keep a
// data region of the requested size.
func FailedResponse(req Request, status Errno) Response {
	switch req := req.(type) {
	case *OpenRequest:
		return &OpenResponse{FD: -1, Status: status}
	case *ReadRequest:
		return &ReadResponse{N: -1, Status: status, Data: make([]byte, req.Count)}
	case *WriteRequest:
		return &WriteResponse{N: -1, Status: status}
	case *CloseRequest:
		return &CloseResponse{Result: -1, Status: status}
	case *LseekRequest:
		return &LseekResponse{Offset: -1, Status: status}
	case *StatRequest:
		return &StatResponse{Result: -1, Status: status, Stat: req.Stat}
	case *UnlinkRequest:
		return &UnlinkResponse{Result: -1, Status: status}
	case *GetdirentriesRequest:
		return &GetdirentriesResponse{N: -1, Status: status}
	case *GetdirtreeRequest:
		return &GetdirtreeResponse{}
	default:
		return nil
	}
}
