package conversation

import "errors"

var (
	ErrUnknownFlow  = errors.New("unknown flow")
	ErrNoActiveFlow = errors.New("no active flow")
	ErrInvalidState = errors.New("flow references unknown state")
	ErrWrongInput   = errors.New("state does not accept this input kind")
)
