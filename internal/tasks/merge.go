package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/normalize"
)

// DefaultCategory is used when the platform reports no category and none is configured.
const DefaultCategory = "22"

// Merge overlays the fields present in row onto current and returns the update body.
//
// Absent row fields keep the current value. Values that fail normalization also keep
// the current value and produce a warning; the merge itself never fails.
//
// A publishAt from the row forces private status, because the platform only schedules
// private videos. A publishAt carried over from current is dropped only when the row sets a
// privacy other than private; a row that leaves privacy alone keeps the status block as is.
func Merge(current models.Video, row models.Row, defaultCategory string) (models.VideoUpdate, []string) {
	var warnings []string
	if defaultCategory == "" {
		defaultCategory = DefaultCategory
	}

	snippet := models.UpdateSnippet{
		Title:       current.Snippet.Title,
		Description: current.Snippet.Description,
		CategoryID:  current.Snippet.CategoryID.Or(defaultCategory),
		Tags:        current.Snippet.Tags,
	}

	if title, ok := row.Title.Get(); ok {
		snippet.Title = strings.TrimSpace(title)
	}
	if desc, ok := row.Description.Get(); ok {
		snippet.Description = strings.ReplaceAll(desc, `\n`, "\n")
	}
	if tags, ok := row.Tags.Get(); ok {
		snippet.Tags = models.Some(normalize.ParseTags(tags))
	}
	if raw, ok := row.CategoryID.Get(); ok {
		if code, valid := normalize.Category(raw); valid {
			snippet.CategoryID = code
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid categoryId %q, keeping category %s", raw, snippet.CategoryID))
		}
	}

	status := models.UpdateStatus{
		PrivacyStatus: current.Status.PrivacyStatus.Or(normalize.Public),
		MadeForKids:   current.Status.MadeForKids.Or(false),
		PublishAt:     current.Status.PublishAt,
	}

	if raw, ok := row.PrivacyStatus.Get(); ok {
		if privacy, valid := normalize.Privacy(raw); valid {
			status.PrivacyStatus = privacy
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid privacyStatus %q, keeping %s", raw, status.PrivacyStatus))
		}
	}
	if raw, ok := row.MadeForKids.Get(); ok {
		status.MadeForKids = normalize.ParseBool(raw)
	}

	if publishAt, ok := row.PublishAt.Get(); ok {
		status.PublishAt = strings.TrimSpace(publishAt)
		if status.PrivacyStatus != normalize.Private {
			warnings = append(warnings, fmt.Sprintf("publishAt %s requires private status, changing %s to private", status.PublishAt, status.PrivacyStatus))
			status.PrivacyStatus = normalize.Private
		}
	} else if row.PrivacyStatus.Present() && status.PrivacyStatus != normalize.Private {
		status.PublishAt = ""
	}

	id := current.ID
	if id == "" {
		id = row.VideoID
	}
	return models.VideoUpdate{ID: id, Snippet: snippet, Status: status}, warnings
}
