package flow

import "github.com/m3rciful/topupbot/topup/session"

// Kind is the type of an inbound user event.
type Kind int

const (
	KindText Kind = iota + 1
	KindPhoto
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPhoto:
		return "photo"
	}
	return "unknown"
}

// Event is one inbound message from a user.
type Event struct {
	UserID   int64
	ChatID   int64
	UserName string
	Kind     Kind
	Text     string
	// PhotoID is the file id of the largest photo size.
	PhotoID string
}

// noSession is the state of a user without a session.
const noSession session.Step = 0

type transitionKey struct {
	state session.Step
	kind  Kind
}

type transition func(s *Service, c *turn) error

// transitions lists every (state, event kind) pair the handler accepts.
var transitions = map[transitionKey]transition{
	{noSession, KindText}:                      (*Service).selectProduct,
	{session.AwaitingUID, KindText}:            (*Service).acceptUID,
	{session.AwaitingPaymentDetails, KindText}: (*Service).acceptTransaction,
	// A text while the screenshot is expected is read as a fresh product code.
	// Anything else gets a screenshot reminder instead of the invalid-code
	// reply, and the session is kept.
	{session.AwaitingScreenshot, KindText}:  (*Service).restartOrRemind,
	{session.AwaitingScreenshot, KindPhoto}: (*Service).submitOrder,

	{noSession, KindPhoto}:                      (*Service).rejectPhoto,
	{session.AwaitingUID, KindPhoto}:            (*Service).rejectPhoto,
	{session.AwaitingPaymentDetails, KindPhoto}: (*Service).rejectPhoto,
}
