package models

// Page is one page of forecast records plus pagination metadata, mirroring
// the shape the JSON layer serves.
type Page struct {
	Content       []WeatherRecord `json:"content"`
	PageNumber    int             `json:"pageNumber"`
	PageSize      int             `json:"pageSize"`
	TotalElements int             `json:"totalElements"`
	TotalPages    int             `json:"totalPages"`
}

// NewPage slices records into the requested page. Records are expected to be
// sorted already. A page beyond the available data yields empty content with
// accurate totals rather than an error.
func NewPage(records []WeatherRecord, page, size int) Page {
	total := len(records)
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}

	start := page * size
	end := start + size
	var content []WeatherRecord
	if start < total {
		if end > total {
			end = total
		}
		content = records[start:end]
	} else {
		content = []WeatherRecord{}
	}

	return Page{
		Content:       content,
		PageNumber:    page,
		PageSize:      size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
