package processors

import (
	"github.com/username/walkermail/src/models"
)

// TitleNormalizer canonicalizes free-text book titles for reporting and
// deduplication. It is applied only when rendering output, never when
// building or persisting orders.
type TitleNormalizer interface {
	Normalize(title string) string
}

// ReportProcessor renders a parsed order batch into the human-facing
// report formats.
type ReportProcessor interface {
	Titles(orders []models.Order) []string
	MarkdownTable(orders []models.Order) string
}
