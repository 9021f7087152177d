package llmclient

import "context"

// FakeInvoker is a deterministic test double: it returns a canned response
// (or error) per call, recording every request it saw.
type FakeInvoker struct {
	Responses []Response
	Err       error
	Requests  []Request

	callIndex int
}

// Invoke returns the next canned Response in order, or Err if set.
func (f *FakeInvoker) Invoke(_ context.Context, req Request) (Response, error) {
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return Response{}, f.Err
	}
	if f.callIndex >= len(f.Responses) {
		return Response{}, nil
	}
	resp := f.Responses[f.callIndex]
	f.callIndex++
	return resp, nil
}
