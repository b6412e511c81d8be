package models

import "strings"

// Input table column names. VideoIDColumn is the only required one.
const (
	VideoIDColumn       = "video_id"
	TitleColumn         = "title"
	DescriptionColumn   = "description"
	TagsColumn          = "tags"
	CategoryColumn      = "categoryId"
	PrivacyColumn       = "privacyStatus"
	PublishAtColumn     = "publishAt"
	MadeForKidsColumn   = "made_for_kids"
	ThumbnailPathColumn = "thumbnail_path"
	PlaylistIDColumn    = "playlist_id"
	IsShortColumn       = "is_short"
)

// OptionalColumns lists the columns backfilled as absent when missing from the source.
var OptionalColumns = []string{
	TitleColumn, DescriptionColumn, TagsColumn, CategoryColumn, PrivacyColumn,
	PublishAtColumn, MadeForKidsColumn, ThumbnailPathColumn, PlaylistIDColumn, IsShortColumn,
}

// Row is one spreadsheet record describing the desired changes to a single video.
//
// Rows are immutable once loaded. Index is the 0-based position in the table and
// doubles as the queue token and the display key.
type Row struct {
	Index         int
	VideoID       string
	Title         Opt[string]
	Description   Opt[string]
	Tags          Opt[string]
	CategoryID    Opt[string]
	PrivacyStatus Opt[string]
	PublishAt     Opt[string]
	MadeForKids   Opt[string]
	ThumbnailPath Opt[string]
	PlaylistID    Opt[string]
	IsShort       Opt[string]
}

// Cell converts raw cell text into an Opt: present iff the trimmed text is non-empty.
//
// The untrimmed text is kept so callers decide how much whitespace matters.
func Cell(raw string) Opt[string] {
	if strings.TrimSpace(raw) == "" {
		return None[string]()
	}
	return Some(raw)
}

// NewRow builds a Row from a column-name to cell-text mapping. Missing columns are absent.
func NewRow(index int, cells map[string]string) Row {
	return Row{
		Index:         index,
		VideoID:       strings.TrimSpace(cells[VideoIDColumn]),
		Title:         Cell(cells[TitleColumn]),
		Description:   Cell(cells[DescriptionColumn]),
		Tags:          Cell(cells[TagsColumn]),
		CategoryID:    Cell(cells[CategoryColumn]),
		PrivacyStatus: Cell(cells[PrivacyColumn]),
		PublishAt:     Cell(cells[PublishAtColumn]),
		MadeForKids:   Cell(cells[MadeForKidsColumn]),
		ThumbnailPath: Cell(cells[ThumbnailPathColumn]),
		PlaylistID:    Cell(cells[PlaylistIDColumn]),
		IsShort:       Cell(cells[IsShortColumn]),
	}
}

// Label is the 1-based row number used in log lines.
func (r Row) Label() int {
	return r.Index + 1
}
