package store

import (
	"time"
)

// Role is the privilege level of a user. Lower values are more privileged.
type Role int

// Supported roles.
const (
	RoleSuper Role = iota
	RolePowerExpert
	RoleExpert
	RoleUser
)

// Provider identifies the identity provider a user signed up with.
type Provider string

// Supported providers. Local accounts leave the provider empty.
const (
	ProviderApple  Provider = "apple"
	ProviderGoogle Provider = "google"
	ProviderKakao  Provider = "kakao"
)

// Audit holds the bookkeeping columns shared by most tables.
type Audit struct {
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"-"`
	DeletedAt *time.Time `json:"-"`
	Version   int        `json:"-"`
}

// User is an account.
type User struct {
	ID         int64    `json:"id"`
	Provider   Provider `json:"provider,omitempty"`
	ProviderID string   `json:"providerId,omitempty"`
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Password   string   `json:"-"`
	Role       Role     `json:"role"`
	Avatar     string   `json:"avatar,omitempty"`
	PhoneToken string   `json:"-"`
	Audit
}

// Deleted reports whether the user is soft deleted.
func (u User) Deleted() bool {
	return u.DeletedAt != nil
}

// Stereo marks whether a place is a top-level atlas entry or a child
// identification.
type Stereo string

// Supported stereo values.
const (
	StereoParent Stereo = "parent"
	StereoChild  Stereo = "child"
)

// Place is an atlas entry.
type Place struct {
	ID                      string      `json:"id"`
	Name                    string      `json:"name"`
	KoreanName              string      `json:"koreanName"`
	IsModern                bool        `json:"isModern"`
	Description             string      `json:"description"`
	KoreanDescription       string      `json:"koreanDescription"`
	ImageTitle              string      `json:"imageTitle"`
	Stereo                  Stereo      `json:"stereo"`
	Verse                   string      `json:"verse"`
	LikeCount               int         `json:"likeCount"`
	UnknownPlacePossibility *int        `json:"unknownPlacePossibility"`
	Latitude                *float64    `json:"latitude"`
	Longitude               *float64    `json:"longitude"`
	Types                   []PlaceType `json:"types,omitempty"`
	Audit
}

// PlaceUpdate carries optional place field changes. Nil fields are left
// untouched; a non-nil TypeIDs replaces the place's types.
type PlaceUpdate struct {
	Name              *string
	KoreanName        *string
	IsModern          *bool
	Description       *string
	KoreanDescription *string
	ImageTitle        *string
	Stereo            *Stereo
	Verse             *string
	Latitude          *float64
	Longitude         *float64
	TypeIDs           []int64
}

// PlaceType is a category such as "city" or "river".
type PlaceType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PlaceTypeCount pairs a type with its number of non-modern places.
type PlaceTypeCount struct {
	PlaceType
	PlaceCount int `json:"placeCount"`
}

// PlaceRelation links a parent place to a child identification.
type PlaceRelation struct {
	ID          int64  `json:"id"`
	ParentID    string `json:"parentId"`
	ChildID     string `json:"childId"`
	Possibility *int   `json:"possibility"`
}

// RelatedPlace is one side of a relation, loaded with its types.
type RelatedPlace struct {
	ID          int64 `json:"id"`
	Possibility *int  `json:"possibility"`
	Place       Place `json:"place"`
}

// Memo is a user's private note on a place.
type Memo struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlaceDetail is the full view of a place.
type PlaceDetail struct {
	Place
	ChildRelations  []RelatedPlace `json:"childRelations"`
	ParentRelations []RelatedPlace `json:"parentRelations"`
	IsLiked         *bool          `json:"isLiked,omitempty"`
	IsSaved         *bool          `json:"isSaved,omitempty"`
	Memo            *Memo          `json:"memo,omitempty"`
}

// PlaceUserState is a user's interaction with one place.
type PlaceUserState struct {
	Liked bool
	Saved bool
	Memo  *Memo
}

// PlaceSort orders place listings.
type PlaceSort string

// Supported sorts.
const (
	SortAsc  PlaceSort = "asc"
	SortDesc PlaceSort = "desc"
	SortLike PlaceSort = "like"
)

// PlaceFilter narrows place listings.
type PlaceFilter struct {
	Name       string
	IsModern   bool
	Stereo     Stereo
	Prefix     string
	BibleBook  string
	Sort       PlaceSort
	PlaceTypes []string
	Page       Page
}

// CollectionKind selects one of the user's place collections.
type CollectionKind string

// Supported collections.
const (
	CollectionLike CollectionKind = "like"
	CollectionSave CollectionKind = "save"
	CollectionMemo CollectionKind = "memo"
)

// CollectionIDs lists the ids of places in each of a user's collections.
type CollectionIDs struct {
	Liked      []string `json:"liked"`
	Bookmarked []string `json:"bookmarked"`
	Memoed     []string `json:"memoed"`
}

// PrefixCount is the number of non-modern places starting with Prefix.
type PrefixCount struct {
	Prefix     string `json:"prefix"`
	PlaceCount int    `json:"placeCount"`
}

// ProposalType is the kind of change a proposal asks for.
type ProposalType int

// Supported proposal types.
const (
	ProposalCreate ProposalType = iota
	ProposalUpdate
	ProposalDelete
)

// Proposal is a crowd-sourced change request.
type Proposal struct {
	ID                     int64        `json:"id"`
	Type                   ProposalType `json:"type"`
	Comment                string       `json:"comment"`
	Content                string       `json:"content"`
	AgreeCount             int          `json:"agreeCount"`
	DisagreeCount          int          `json:"disagreeCount"`
	NewLocationName        *string      `json:"newLocationName"`
	NewLocationDescription *string      `json:"newLocationDescription"`
	NewLatitude            *float64     `json:"newLatitude"`
	NewLongitude           *float64     `json:"newLongitude"`
	PlaceID                *string      `json:"placeId"`
	LocationID             *int64       `json:"locationId"`
	CreatorID              *int64       `json:"-"`
	Creator                *User        `json:"creator,omitempty"`
	Place                  *Place       `json:"place,omitempty"`
	Audit
}

// ProposalPatch carries optional proposal field changes.
type ProposalPatch struct {
	Type                   *ProposalType
	Comment                *string
	NewLocationName        *string
	NewLocationDescription *string
	NewLatitude            *float64
	NewLongitude           *float64
	PlaceID                *string
}

// Location is a user-contributed map location.
type Location struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	LikeCount   int     `json:"likeCount"`
	CreatorID   *int64  `json:"creatorId"`
	Audit
}

// LocationUpdate carries optional location field changes.
type LocationUpdate struct {
	Name        *string
	Description *string
	Latitude    *float64
	Longitude   *float64
}

// BoundingBox is a map viewport given by its south-west and north-east
// corners. A box whose SWLng exceeds NELng crosses the antimeridian.
type BoundingBox struct {
	SWLat float64
	SWLng float64
	NELat float64
	NELng float64
}

// CrossesAntimeridian reports whether the box wraps around longitude 180.
func (b BoundingBox) CrossesAntimeridian() bool {
	return b.SWLng > b.NELng
}

// NotificationType classifies notifications.
type NotificationType int

// Supported notification types.
const (
	NotificationAgree NotificationType = iota
	NotificationDisagree
	NotificationApproved
	NotificationRejected
	NotificationWarn
	NotificationProposal
)

// Notification is a message delivered to a user.
type Notification struct {
	ID          int64            `json:"id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	RedirectURL *string          `json:"redirectUrl"`
	UserID      *int64           `json:"userId"`
	Audit
}

// ReportType classifies abuse reports on places, locations and proposals.
type ReportType int

// Supported report types.
const (
	ReportSpam ReportType = iota
	ReportInappropriate
	ReportHateSpeech
	ReportHarassment
	ReportFalseInformation
	ReportPersonalInfo
	ReportEtc
)

// PlaceReport flags a place.
type PlaceReport struct {
	ID        int64      `json:"id"`
	Type      ReportType `json:"type"`
	Reason    *string    `json:"reason"`
	CreatorID *int64     `json:"creatorId"`
	PlaceID   string     `json:"placeId"`
	Audit
}

// PlaceReportUpdate carries optional place report changes.
type PlaceReportUpdate struct {
	Type   *ReportType
	Reason *string
}

// UserLocationReport flags a location.
type UserLocationReport struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	LocationID int64      `json:"locationId"`
	Type       ReportType `json:"type"`
	Reason     *string    `json:"reason"`
	Audit
}

// UserProposalReport flags a proposal.
type UserProposalReport struct {
	UserID     int64      `json:"userId"`
	ProposalID int64      `json:"proposalId"`
	Type       ReportType `json:"type"`
	Reason     string     `json:"reason"`
}

// ReportDigest is one row of the moderation digest.
type ReportDigest struct {
	Source    string     `json:"source"`
	TargetID  int64      `json:"targetId"`
	UserID    int64      `json:"userId"`
	Type      ReportType `json:"type"`
	Reason    string     `json:"reason"`
	CreatedAt time.Time  `json:"createdAt"`
}

// FeedbackType classifies app feedback reports.
type FeedbackType string

// Supported feedback types.
const (
	FeedbackBugReport        FeedbackType = "BUG_REPORT"
	FeedbackFeatureRequest   FeedbackType = "FEATURE_REQUEST"
	FeedbackUIUXIssue        FeedbackType = "UI_UX_ISSUE"
	FeedbackPerformanceIssue FeedbackType = "PERFORMANCE_ISSUE"
	FeedbackDataError        FeedbackType = "DATA_ERROR"
	FeedbackLoginIssue       FeedbackType = "LOGIN_ISSUE"
	FeedbackSearchIssue      FeedbackType = "SEARCH_ISSUE"
	FeedbackMapIssue         FeedbackType = "MAP_ISSUE"
	FeedbackGeneral          FeedbackType = "GENERAL_FEEDBACK"
	FeedbackOther            FeedbackType = "OTHER"
)

// Report is app feedback.
type Report struct {
	ID        int64        `json:"id"`
	Type      FeedbackType `json:"type"`
	Comment   *string      `json:"comment"`
	CreatorID *int64       `json:"creatorId"`
	Audit
}

// ReportUpdate carries optional feedback changes.
type ReportUpdate struct {
	Type    *FeedbackType
	Comment *string
}
