package repositories

import (
	"chat-relay/domain"
	"context"
	"strconv"
	"strings"

	"github.com/blugelabs/bluge"
	"github.com/samber/lo"
)

const handleField = "handle"

// UserIndex is a bluge full-text index over user handles, used for
// "find people by username" lookups. Badger stays the source of truth:
// the index only stores ids and is rebuilt on every profile write.
type UserIndex struct {
	writer *bluge.Writer
}

func NewUserIndex(writer *bluge.Writer) *UserIndex {
	return &UserIndex{writer: writer}
}

// Index replaces the document of the user with its current handles.
func (i *UserIndex) Index(user domain.User) error {
	doc := bluge.NewDocument(strconv.FormatInt(int64(user.ID), 10))
	for _, handle := range user.Handles() {
		doc.AddField(bluge.NewKeywordField(handleField, strings.ToLower(handle)))
	}
	return i.writer.Update(doc.ID(), doc)
}

// Search returns ids of users owning a handle that contains query,
// case-insensitively, best matches first.
func (i *UserIndex) Search(query string, limit int) ([]domain.UserID, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	pattern := "*" + stripWildcards(strings.ToLower(query)) + "*"
	request := bluge.NewTopNSearch(limit, bluge.NewWildcardQuery(pattern).SetField(handleField))
	matches, err := reader.Search(context.Background(), request)
	if err != nil {
		return nil, err
	}

	var ids []domain.UserID
	match, err := matches.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				if id, parseErr := strconv.ParseInt(string(value), 10, 64); parseErr == nil {
					ids = append(ids, domain.UserID(id))
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return lo.Uniq(ids), nil
}

// stripWildcards keeps user input from widening the pattern.
func stripWildcards(s string) string {
	return strings.NewReplacer("*", "", "?", "").Replace(s)
}
