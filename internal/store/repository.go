package store

import (
	"context"
	"time"
)

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	FindUserByEmail(ctx context.Context, email string, withDeleted bool) (User, error)
	FindUserByProvider(ctx context.Context, provider Provider, providerID string, withDeleted bool) (User, error)
	RestoreUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, page Page) ([]User, int, error)
	DeleteUser(ctx context.Context, id int64) error
	// WithdrawUser soft deletes the user, removes their place collections and
	// detaches their proposals in one transaction.
	WithdrawUser(ctx context.Context, id int64) error
}

// PlaceRepository persists places and per-user place interactions.
type PlaceRepository interface {
	// CreatePlace inserts the place and its type links. It returns
	// ErrInvalidReference when a type id does not exist.
	CreatePlace(ctx context.Context, p Place, typeIDs []int64) (Place, error)
	UpdatePlace(ctx context.Context, id string, upd PlaceUpdate) (Place, error)
	DeletePlace(ctx context.Context, id string) error
	GetPlace(ctx context.Context, id string) (Place, error)
	GetPlaceDetail(ctx context.Context, id string) (PlaceDetail, error)
	PlaceExists(ctx context.Context, id string) (bool, error)
	ListPlaces(ctx context.Context, f PlaceFilter) ([]Place, int, error)
	ListRepPointCandidates(ctx context.Context) ([]Place, error)
	ListUserPlaces(ctx context.Context, userID int64, kind CollectionKind, page Page) ([]Place, int, error)
	UserCollectionIDs(ctx context.Context, userID int64) (CollectionIDs, error)
	UserPlaceState(ctx context.Context, userID int64, placeID string) (PlaceUserState, error)
	ToggleLike(ctx context.Context, userID int64, placeID string) (bool, error)
	ToggleSave(ctx context.Context, userID int64, placeID string) (bool, error)
	UpsertMemo(ctx context.Context, userID int64, placeID, text string) (Memo, error)
	DeleteMemo(ctx context.Context, userID int64, placeID string) error
	PrefixCounts(ctx context.Context) ([]PrefixCount, error)
	// BibleBookCounts returns the number of non-modern places citing each
	// book key.
	BibleBookCounts(ctx context.Context, keys []string) (map[string]int, error)
}

// PlaceTypeRepository persists place categories.
type PlaceTypeRepository interface {
	CreatePlaceType(ctx context.Context, name string) (PlaceType, error)
	ListPlaceTypes(ctx context.Context, page Page) ([]PlaceTypeCount, int, error)
	GetPlaceType(ctx context.Context, id int64) (PlaceType, error)
	FindPlaceTypeByName(ctx context.Context, name string) (PlaceType, error)
	CountPlaceTypes(ctx context.Context, ids []int64) (int, error)
	UpdatePlaceType(ctx context.Context, id int64, name string) (PlaceType, error)
	DeletePlaceType(ctx context.Context, id int64) error
}

// ProposalRepository persists proposals and votes.
type ProposalRepository interface {
	CreateProposal(ctx context.Context, p Proposal) (Proposal, error)
	GetProposal(ctx context.Context, id int64) (Proposal, error)
	ListProposals(ctx context.Context, page Page) ([]Proposal, int, error)
	UpdateProposal(ctx context.Context, id int64, upd ProposalPatch) (Proposal, error)
	DeleteProposal(ctx context.Context, id int64) error
	// ToggleAgreement records a vote. Casting the same vote twice removes
	// it, in which case the returned value is nil.
	ToggleAgreement(ctx context.Context, proposalID, userID int64, agree bool) (*bool, error)
	CreateProposalReport(ctx context.Context, r UserProposalReport) error
}

// LocationRepository persists user-contributed locations.
type LocationRepository interface {
	ListLocations(ctx context.Context, query string, page Page) ([]Location, int, error)
	ListLocationsWithin(ctx context.Context, box BoundingBox) ([]Location, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	FindLocationByCoordinatesOrName(ctx context.Context, lat, lng float64, name string) (Location, error)
	CreateLocation(ctx context.Context, l Location) (Location, error)
	UpdateLocation(ctx context.Context, id int64, upd LocationUpdate) (Location, error)
	DeleteLocation(ctx context.Context, id int64) error
	ToggleLocationLike(ctx context.Context, userID, locationID int64) (bool, error)
	ToggleLocationSave(ctx context.Context, userID, locationID int64) (bool, error)
	CreateLocationReport(ctx context.Context, r UserLocationReport) (UserLocationReport, error)
	// ApplyProposal applies the proposal to the locations table, notifies the
	// affected users and soft deletes the proposal in one transaction.
	ApplyProposal(ctx context.Context, proposalID int64) (Location, error)
}

// NotificationRepository persists user notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n Notification) (Notification, error)
	ListNotifications(ctx context.Context, userID int64, page Page) ([]Notification, int, error)
	GetNotification(ctx context.Context, id int64) (Notification, error)
	DeleteNotification(ctx context.Context, id int64) error
	ListRecentNotifications(ctx context.Context, since time.Time) ([]Notification, error)
}

// ReportRepository persists app feedback and the moderation digest.
type ReportRepository interface {
	CreateReport(ctx context.Context, r Report) (Report, error)
	ListReports(ctx context.Context, page Page) ([]Report, int, error)
	GetReport(ctx context.Context, id int64) (Report, error)
	UpdateReport(ctx context.Context, id int64, upd ReportUpdate) (Report, error)
	DeleteReport(ctx context.Context, id int64) error
	ListRecentReports(ctx context.Context, since time.Time) ([]ReportDigest, error)
}

// PlaceReportRepository persists reports against places.
type PlaceReportRepository interface {
	CreatePlaceReport(ctx context.Context, r PlaceReport) (PlaceReport, error)
	ListPlaceReports(ctx context.Context, page Page) ([]PlaceReport, int, error)
	GetPlaceReport(ctx context.Context, id int64) (PlaceReport, error)
	UpdatePlaceReport(ctx context.Context, id int64, upd PlaceReportUpdate) (PlaceReport, error)
	DeletePlaceReport(ctx context.Context, id int64) error
}

// CounterRepository recomputes denormalised counters.
type CounterRepository interface {
	SyncProposalCounts(ctx context.Context) (int64, error)
	SyncLocationLikeCounts(ctx context.Context) (int64, error)
	SyncPlaceLikeCounts(ctx context.Context) (int64, error)
}

// PlaceGraph is a full replacement of the place tables.
type PlaceGraph struct {
	Places    []Place
	Relations []PlaceRelation
	// PlaceTypes maps a place id to its type names.
	PlaceTypes map[string][]string
}

// ReloadRepository bulk replaces the place graph.
type ReloadRepository interface {
	ReplacePlaceGraph(ctx context.Context, g PlaceGraph) error
}
