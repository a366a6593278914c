package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/service"
	"github.com/iyhunko/product-catalog/internal/sqs"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockEventRepository) ListPending(ctx context.Context, limit int) ([]*model.Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *MockEventRepository) UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error {
	args := m.Called(ctx, eventID, status)
	return args.Error(0)
}

// MockPublisher is a mock implementation of the catalog publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCatalogMessage(ctx context.Context, msg sqs.CatalogMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func pendingEvent(t *testing.T) (*model.Event, sqs.CatalogMessage) {
	t.Helper()

	msg := sqs.CatalogMessage{
		Action:    model.EventTypeProductCreated,
		ProductID: uuid.New().String(),
		Title:     "Ceramic Coffee Mug",
		Status:    "active",
	}
	event, err := model.NewEvent(model.EventTypeProductCreated, msg)
	require.NoError(t, err)
	event.InitMeta()

	return event, msg
}

func TestOutboxWorker_PublishesPendingEvents(t *testing.T) {
	events := new(MockEventRepository)
	publisher := new(MockPublisher)

	event, msg := pendingEvent(t)
	done := make(chan struct{})

	events.On("ListPending", mock.Anything, mock.AnythingOfType("int")).Return([]*model.Event{event}, nil).Once()
	events.On("ListPending", mock.Anything, mock.AnythingOfType("int")).Return(nil, nil).Maybe()
	publisher.On("PublishCatalogMessage", mock.Anything, msg).Return(nil).Once()
	events.On("UpdateStatus", mock.Anything, event.ID, model.EventStatusProcessed).
		Run(func(mock.Arguments) { close(done) }).Return(nil).Once()

	worker := service.NewOutboxWorker(events, publisher, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not processed in time")
	}
	worker.Stop()

	events.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOutboxWorker_MarksFailedEvents(t *testing.T) {
	events := new(MockEventRepository)
	publisher := new(MockPublisher)

	event, msg := pendingEvent(t)
	done := make(chan struct{})

	events.On("ListPending", mock.Anything, mock.AnythingOfType("int")).Return([]*model.Event{event}, nil).Once()
	events.On("ListPending", mock.Anything, mock.AnythingOfType("int")).Return(nil, nil).Maybe()
	publisher.On("PublishCatalogMessage", mock.Anything, msg).Return(errors.New("broker unavailable")).Once()
	events.On("UpdateStatus", mock.Anything, event.ID, model.EventStatusFailed).
		Run(func(mock.Arguments) { close(done) }).Return(nil).Once()

	worker := service.NewOutboxWorker(events, publisher, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not marked failed in time")
	}
	worker.Stop()

	events.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
