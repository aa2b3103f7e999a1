package eventhub

import (
	"sync"

	"civicdesk/backend/internal/models"
)

type mockClient struct {
	sub    Subscriber
	recv   chan models.ComplaintEvent
	once   sync.Once
	closed chan struct{}
}

func newMockClient(userID string, role models.Role, buffer int) *mockClient {
	return &mockClient{
		sub:    Subscriber{UserID: userID, Role: role},
		recv:   make(chan models.ComplaintEvent, buffer),
		closed: make(chan struct{}),
	}
}

func (c *mockClient) Subscriber() Subscriber                    { return c.sub }
func (c *mockClient) SendChannel() chan<- models.ComplaintEvent { return c.recv }
func (c *mockClient) Run()                                      {}
func (c *mockClient) Close()                                    { c.once.Do(func() { close(c.closed) }) }
