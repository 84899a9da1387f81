package ports

import (
	"context"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// Dispatcher receives finished runs. Dispatch must not block the caller
// and must not fail it: delivery errors are the dispatcher's concern.
type Dispatcher interface {
	Dispatch(ctx context.Context, sub domain.Submission)
}

// Deliverer performs one synchronous delivery of a submission, such as an
// HTTP webhook call. Dispatchers fan submissions out to deliverers.
type Deliverer interface {
	Deliver(ctx context.Context, sub domain.Submission) error
}

// DelivererFunc adapts a function to the Deliverer interface.
type DelivererFunc func(ctx context.Context, sub domain.Submission) error

func (f DelivererFunc) Deliver(ctx context.Context, sub domain.Submission) error {
	return f(ctx, sub)
}

// EventSink receives runtime-to-host messages.
type EventSink interface {
	Emit(ctx context.Context, ev domain.HostEvent)
}
