package forms

import (
	"context"

	"scribe/internal/models"
)

var commentSchema = Schema[models.Comment]{
	{
		Name:  "text",
		Rules: []Rule{Required(MsgRequired)},
		Assign: func(_ context.Context, c *models.Comment, v string) error {
			c.Text = v
			return nil
		},
	},
}

// CommentSchema is the mapping table of the comment form.
func CommentSchema() Schema[models.Comment] {
	return commentSchema
}
