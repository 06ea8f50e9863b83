package api

import (
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

type kakaoTokenRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

type idTokenRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type createPlaceRequest struct {
	ID                string   `json:"id" validate:"required,max=255"`
	Name              string   `json:"name" validate:"required"`
	KoreanName        string   `json:"koreanName"`
	IsModern          *bool    `json:"isModern"`
	Description       string   `json:"description"`
	KoreanDescription string   `json:"koreanDescription"`
	ImageTitle        string   `json:"imageTitle"`
	Stereo            string   `json:"stereo" validate:"omitempty,oneof=parent child"`
	Verse             string   `json:"verse"`
	Latitude          *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude         *float64 `json:"longitude" validate:"omitempty,longitude"`
	TypeIDs           []int64  `json:"typeIds" validate:"required,min=1,dive,gt=0"`
}

func (c createPlaceRequest) place() store.Place {
	p := store.Place{
		ID:                c.ID,
		Name:              c.Name,
		KoreanName:        c.KoreanName,
		IsModern:          true,
		Description:       c.Description,
		KoreanDescription: c.KoreanDescription,
		ImageTitle:        c.ImageTitle,
		Stereo:            store.StereoParent,
		Verse:             c.Verse,
		Latitude:          c.Latitude,
		Longitude:         c.Longitude,
	}
	if c.IsModern != nil {
		p.IsModern = *c.IsModern
	}
	if c.Stereo != "" {
		p.Stereo = store.Stereo(c.Stereo)
	}
	return p
}

type updatePlaceRequest struct {
	Name              *string  `json:"name" validate:"omitempty,min=1"`
	KoreanName        *string  `json:"koreanName"`
	IsModern          *bool    `json:"isModern"`
	Description       *string  `json:"description"`
	KoreanDescription *string  `json:"koreanDescription"`
	ImageTitle        *string  `json:"imageTitle"`
	Stereo            *string  `json:"stereo" validate:"omitempty,oneof=parent child"`
	Verse             *string  `json:"verse"`
	Latitude          *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude         *float64 `json:"longitude" validate:"omitempty,longitude"`
	TypeIDs           []int64  `json:"typeIds" validate:"omitempty,min=1,dive,gt=0"`
}

func (u updatePlaceRequest) update() store.PlaceUpdate {
	upd := store.PlaceUpdate{
		Name:              u.Name,
		KoreanName:        u.KoreanName,
		IsModern:          u.IsModern,
		Description:       u.Description,
		KoreanDescription: u.KoreanDescription,
		ImageTitle:        u.ImageTitle,
		Verse:             u.Verse,
		Latitude:          u.Latitude,
		Longitude:         u.Longitude,
		TypeIDs:           u.TypeIDs,
	}
	if u.Stereo != nil {
		st := store.Stereo(*u.Stereo)
		upd.Stereo = &st
	}
	return upd
}

type memoRequest struct {
	Text string `json:"text" validate:"required"`
}

type createProposalRequest struct {
	Type                   *int     `json:"type" validate:"required,min=0,max=2"`
	Comment                string   `json:"comment" validate:"required"`
	Content                string   `json:"content"`
	NewLocationName        *string  `json:"newLocationName"`
	NewLocationDescription *string  `json:"newLocationDescription"`
	NewLatitude            *float64 `json:"newLatitude" validate:"omitempty,latitude"`
	NewLongitude           *float64 `json:"newLongitude" validate:"omitempty,longitude"`
	PlaceID                *string  `json:"placeId"`
	LocationID             *int64   `json:"locationId"`
}

func (c createProposalRequest) proposal() store.Proposal {
	return store.Proposal{
		Type:                   store.ProposalType(*c.Type),
		Comment:                c.Comment,
		Content:                c.Content,
		NewLocationName:        c.NewLocationName,
		NewLocationDescription: c.NewLocationDescription,
		NewLatitude:            c.NewLatitude,
		NewLongitude:           c.NewLongitude,
		PlaceID:                c.PlaceID,
		LocationID:             c.LocationID,
	}
}

type updateProposalRequest struct {
	Type                   *int     `json:"type" validate:"omitempty,min=0,max=2"`
	Comment                *string  `json:"comment" validate:"omitempty,min=1"`
	NewLocationName        *string  `json:"newLocationName"`
	NewLocationDescription *string  `json:"newLocationDescription"`
	NewLatitude            *float64 `json:"newLatitude" validate:"omitempty,latitude"`
	NewLongitude           *float64 `json:"newLongitude" validate:"omitempty,longitude"`
	PlaceID                *string  `json:"placeId"`
}

func (u updateProposalRequest) update() store.ProposalPatch {
	upd := store.ProposalPatch{
		Comment:                u.Comment,
		NewLocationName:        u.NewLocationName,
		NewLocationDescription: u.NewLocationDescription,
		NewLatitude:            u.NewLatitude,
		NewLongitude:           u.NewLongitude,
		PlaceID:                u.PlaceID,
	}
	if u.Type != nil {
		t := store.ProposalType(*u.Type)
		upd.Type = &t
	}
	return upd
}

type agreementRequest struct {
	IsAgree *bool `json:"isAgree"`
}

type abuseReportRequest struct {
	Type   *int    `json:"type" validate:"required,min=0,max=6"`
	Reason *string `json:"reason"`
}

type createLocationRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude" validate:"required,latitude"`
	Longitude   *float64 `json:"longitude" validate:"required,longitude"`
}

type updateLocationRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
}

type createNotificationRequest struct {
	Title       string  `json:"title" validate:"required"`
	Content     string  `json:"content" validate:"required"`
	Type        *int    `json:"type" validate:"required,min=0,max=5"`
	RedirectURL *string `json:"redirectUrl"`
	UserID      int64   `json:"userId" validate:"required,gt=0"`
}

type createReportRequest struct {
	Type    string  `json:"type" validate:"required,oneof=BUG_REPORT FEATURE_REQUEST UI_UX_ISSUE PERFORMANCE_ISSUE DATA_ERROR LOGIN_ISSUE SEARCH_ISSUE MAP_ISSUE GENERAL_FEEDBACK OTHER"`
	Comment *string `json:"comment"`
}

type updateReportRequest struct {
	Type    *string `json:"type" validate:"omitempty,oneof=BUG_REPORT FEATURE_REQUEST UI_UX_ISSUE PERFORMANCE_ISSUE DATA_ERROR LOGIN_ISSUE SEARCH_ISSUE MAP_ISSUE GENERAL_FEEDBACK OTHER"`
	Comment *string `json:"comment"`
}

type createPlaceReportRequest struct {
	PlaceID string  `json:"placeId" validate:"required"`
	Reason  *string `json:"reason"`
	Type    *int    `json:"type" validate:"required,min=0,max=6"`
}

type updatePlaceReportRequest struct {
	Reason *string `json:"reason"`
	Type   *int    `json:"type" validate:"omitempty,min=0,max=6"`
}

type placeTypeRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}
