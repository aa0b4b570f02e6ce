package catalogapi

import (
	"fmt"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
)

// PageInfo carries the upstream pagination metadata for one page response.
// Next and Prev are pointers so that an explicit JSON null (the authoritative
// "no further page" signal) is distinguishable from any other value.
type PageInfo struct {
	Count int     `json:"count"`
	Pages int     `json:"pages"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}

// HasNext reports whether the upstream signalled that a further page exists.
func (p PageInfo) HasNext() bool {
	return p.Next != nil
}

// CharactersPage is one decoded page of catalog characters.
type CharactersPage struct {
	Info       PageInfo
	Characters []catalog.Character
}

// StatusError reports a non-2xx response from the upstream API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// charactersPageRecord mirrors the upstream page envelope.
type charactersPageRecord struct {
	Info    PageInfo          `json:"info"`
	Results []characterRecord `json:"results"`
}

// characterRecord mirrors the upstream character document. The episode and
// url fields are accepted on the wire but are not part of the domain entity.
type characterRecord struct {
	ID       int               `json:"id"`
	Name     string            `json:"name"`
	Status   string            `json:"status"`
	Species  string            `json:"species"`
	Type     string            `json:"type"`
	Gender   string            `json:"gender"`
	Origin   locationRefRecord `json:"origin"`
	Location locationRefRecord `json:"location"`
	Image    string            `json:"image"`
	Created  string            `json:"created"`
}

type locationRefRecord struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (r characterRecord) toDomain() catalog.Character {
	return catalog.Character{
		ID:           r.ID,
		Name:         r.Name,
		Status:       r.Status,
		Species:      r.Species,
		Type:         r.Type,
		Gender:       r.Gender,
		OriginName:   r.Origin.Name,
		OriginURL:    r.Origin.URL,
		LocationName: r.Location.Name,
		LocationURL:  r.Location.URL,
		Image:        r.Image,
		Created:      r.Created,
	}
}
