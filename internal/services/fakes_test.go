package services

import (
	"context"
	"sync"
)

type fakeIdentity struct {
	mu        sync.Mutex
	updates   map[string]map[string]any
	verified  []string
	updateErr error
	verifyErr error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{updates: map[string]map[string]any{}}
}

func (f *fakeIdentity) UpdateUser(_ context.Context, id string, attrs map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates[id] = attrs
	return nil
}

func (f *fakeIdentity) SendEmailVerification(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return f.verifyErr
	}
	f.verified = append(f.verified, id)
	return nil
}

type fakeProducer struct {
	mu       sync.Mutex
	messages [][]byte
	err      error
}

func (f *fakeProducer) PublishMessage(_ context.Context, _, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, value)
	return nil
}

func (f *fakeProducer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}
