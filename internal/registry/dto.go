package registry

import (
	"time"

	validation "github.com/jellydator/validation"
)

// Sort orders accepted by the list endpoint.
const (
	SortPublicationDateDesc = "PUBLICATION_DATE_DESC"
	SortPublicationDateAsc  = "PUBLICATION_DATE_ASC"
)

// Filter values for the registry's taxonomy.
const (
	NatureLoi          = "LOI"
	LegalStatusVigueur = "VIGUEUR"
)

// DateRange bounds a date filter, inclusive on both ends.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ListCriteria is the typed request payload for the list endpoint.
type ListCriteria struct {
	Sort            string     `json:"sort"`
	LegalStatus     []string   `json:"legalStatus"`
	PageNumber      int        `json:"pageNumber"`
	Natures         []string   `json:"natures"`
	SecondSort      string     `json:"secondSort"`
	PageSize        int        `json:"pageSize"`
	PublicationDate DateRange  `json:"publicationDate"`
	SignatureDate   *DateRange `json:"signatureDate,omitempty"`
}

// Validate checks the list criteria before it is sent upstream.
func (c ListCriteria) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Sort, validation.Required),
		validation.Field(&c.LegalStatus, validation.Required),
		validation.Field(&c.Natures, validation.Required),
		validation.Field(&c.PageNumber, validation.Min(1)),
		validation.Field(&c.PageSize, validation.Min(1), validation.Max(100)),
		validation.Field(&c.PublicationDate, validation.By(validateDateRange)),
	)
}

func validateDateRange(value any) error {
	r, ok := value.(DateRange)
	if !ok {
		return validation.NewError("validation_date_range", "must be a date range")
	}
	if r.Start == "" || r.End == "" {
		return validation.NewError("validation_date_range", "start and end are required")
	}
	return nil
}

// LawsOfYearCriteria builds the criteria for one page of laws published in the
// given year, newest first.
func LawsOfYearCriteria(year, pageNumber, pageSize int) ListCriteria {
	return ListCriteria{
		Sort:        SortPublicationDateDesc,
		SecondSort:  SortPublicationDateDesc,
		LegalStatus: []string{LegalStatusVigueur},
		Natures:     []string{NatureLoi},
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		PublicationDate: DateRange{
			Start: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			End:   time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
		},
	}
}

// LawSummary is one result item from the list endpoint.
type LawSummary struct {
	ID         string    `json:"id"`
	Cid        string    `json:"cid"`
	Etat       string    `json:"etat"`
	Title      string    `json:"titre"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// Facet is aggregate count metadata returned alongside a result set.
// It is passed through for diagnostics, never interpreted.
type Facet struct {
	Field        string         `json:"field"`
	Values       map[string]int `json:"values"`
	TotalElement int            `json:"totalElement"`
}

// LawList is the typed response of the list endpoint.
type LawList struct {
	ExecutionTime     int         `json:"executionTime"`
	Results           []LawSummary `json:"results"`
	Natures           *Facet      `json:"natures"`
	LegalStatus       *Facet      `json:"legalStatus"`
	TotalResultNumber int         `json:"totalResultNumber"`
}

// Validate checks the decoded list response against the expected schema.
func (l LawList) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Results, validation.By(func(value any) error {
			results, ok := value.([]LawSummary)
			if !ok {
				return validation.NewError("validation_results", "must be a result list")
			}
			for _, r := range results {
				if r.ID == "" {
					return validation.NewError("validation_results", "result item is missing an id")
				}
			}
			return nil
		})),
	)
}

// consultRequest is the typed request payload for the consult endpoint.
type consultRequest struct {
	Date   string `json:"date"`
	TextID string `json:"textId"`
}

// consultArticle mirrors one article in the consult response.
type consultArticle struct {
	ID       string `json:"id"`
	Cid      string `json:"cid"`
	IntOrdre int    `json:"intOrdre"`
	Etat     string `json:"etat"`
	Num      string `json:"num"`
	Content  string `json:"content"`
}

// consultResponse is the typed response of the consult endpoint.
type consultResponse struct {
	ExecutionTime int              `json:"executionTime"`
	ID            string           `json:"id"`
	Cid           string           `json:"cid"`
	Title         string           `json:"title"`
	Nor           string           `json:"nor"`
	JorfText      string           `json:"jorfText"`
	Signers       string           `json:"signers"`
	Nature        string           `json:"nature"`
	DateParution  *int64           `json:"dateParution"`
	Articles      []consultArticle `json:"articles"`
}

// Validate checks the decoded consult response against the expected schema.
func (r consultResponse) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
	)
}
