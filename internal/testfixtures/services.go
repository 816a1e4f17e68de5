package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
	"github.com/example/meeting-scheduler/internal/lock"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// AvailabilityServiceDeps captures dependencies for constructing an availability service.
type AvailabilityServiceDeps struct {
	Organizers application.OrganizerDirectory
	Settings   application.SettingsReader
	Bookings   application.BookingReader
	Now        func() time.Time
	Logger     *slog.Logger
}

// NewAvailabilityService builds an availability service using the factory clock
// unless deps.Now is set.
func (f *ServiceFactory) NewAvailabilityService(deps AvailabilityServiceDeps) *application.AvailabilityService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAvailabilityServiceWithLogger(
		deps.Organizers,
		deps.Settings,
		deps.Bookings,
		now,
		deps.Logger,
	)
}

// BookingServiceDeps captures dependencies for constructing a booking service.
type BookingServiceDeps struct {
	Organizers   application.OrganizerDirectory
	Settings     application.SettingsLookup
	Bookings     application.BookingRepository
	Availability application.SlotChecker
	Locker       lock.Locker
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewBookingService builds a booking service. A nil Locker is replaced with an
// in-process MemoryLocker.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *application.BookingService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewMemoryLockerWithClock(lock.DefaultTTL, now)
	}
	return application.NewBookingServiceWithLogger(
		deps.Organizers,
		deps.Settings,
		deps.Bookings,
		deps.Availability,
		locker,
		idGen,
		now,
		deps.Logger,
	)
}

// OrganizerServiceDeps captures dependencies for constructing an organizer service.
type OrganizerServiceDeps struct {
	Store       application.OrganizerStore
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewOrganizerService builds an organizer service using the supplied dependencies.
func (f *ServiceFactory) NewOrganizerService(deps OrganizerServiceDeps) *application.OrganizerService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewOrganizerServiceWithLogger(
		deps.Store,
		idGen,
		now,
		deps.Logger,
	)
}
