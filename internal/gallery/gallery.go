package gallery

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinlabel/labelstation/internal/aicore"
)

// Bucket groups image statuses by where they sit in the labeling
// workflow. The backend understands bucket names directly as status
// filters; ALL maps to no filter.
type Bucket string

const (
	BucketAll    Bucket = "ALL"
	BucketTodo   Bucket = "TODO"
	BucketReview Bucket = "REVIEW"
	BucketDone   Bucket = "DONE"
)

const DefaultLimit = 8

// Lister is the slice of the ai-core client the gallery needs.
type Lister interface {
	ListResultImages(ctx context.Context, page, limit int, status, search string) (*aicore.ImageList, error)
}

type Page struct {
	Items      []aicore.ImageRecord `json:"items"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"total_pages"`
	TotalItems int                  `json:"total_items"`
}

type Gallery struct {
	lister Lister
	limit  int
}

func New(lister Lister) *Gallery {
	return &Gallery{lister: lister, limit: DefaultLimit}
}

// ParseBucket validates a bucket name, treating empty as ALL.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(strings.ToUpper(strings.TrimSpace(s))); b {
	case "":
		return BucketAll, nil
	case BucketAll, BucketTodo, BucketReview, BucketDone:
		return b, nil
	default:
		return "", fmt.Errorf("unknown bucket: %s", s)
	}
}

// BucketFor derives the bucket of a single image status, used for
// badge grouping on mixed listings.
func BucketFor(status string) Bucket {
	switch status {
	case "UNLABELED", "IN_PROGRESS", "REJECTED":
		return BucketTodo
	case "SUBMITTED":
		return BucketReview
	case "APPROVED":
		return BucketDone
	default:
		return BucketAll
	}
}

// List fetches one page of a bucket, optionally narrowed by a search
// term. Page numbers start at 1; out-of-range values are clamped.
func (g *Gallery) List(ctx context.Context, bucket Bucket, page int, search string) (*Page, error) {
	if page < 1 {
		page = 1
	}

	status := ""
	if bucket != BucketAll {
		status = string(bucket)
	}

	list, err := g.lister.ListResultImages(ctx, page, g.limit, status, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	items := list.Items
	if items == nil {
		items = []aicore.ImageRecord{}
	}

	return &Page{
		Items:      items,
		Page:       page,
		TotalPages: list.Meta.TotalPages,
		TotalItems: list.Meta.TotalItems,
	}, nil
}
