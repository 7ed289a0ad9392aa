package errs

// Gateway / message service error codes. 1xxx auth, 2xxx protocol, 3xxx storage.
var (
	ErrTokenMissing   = NewCodeError(1001, "token missing")
	ErrTokenInvalid   = NewCodeError(1002, "token invalid")
	ErrTokenExpired   = NewCodeError(1003, "token expired")
	ErrIdentityLost   = NewCodeError(1004, "session has no bound user")
	ErrEditForbidden  = NewCodeError(1005, "not the sender of this message")
	ErrFrameMalformed = NewCodeError(2001, "frame malformed")
	ErrUnknownEvent   = NewCodeError(2002, "unknown event type")
	ErrPayloadInvalid = NewCodeError(2003, "payload invalid")
	ErrRecordNotFound = NewCodeError(3001, "record not found")
	ErrStoreFailure   = NewCodeError(3002, "store operation failed")
)
