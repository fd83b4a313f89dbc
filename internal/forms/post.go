package forms

import (
	"context"
	"strconv"

	"scribe/internal/models"
)

// GroupFinder resolves the group referenced by a post submission.
type GroupFinder interface {
	GetByID(ctx context.Context, id uint) (*models.Group, error)
}

// PostSchema is the mapping table of the post form. The image field is bound
// separately because it arrives as an upload, see Upload.
func PostSchema(groups GroupFinder) Schema[models.Post] {
	return Schema[models.Post]{
		{
			Name:  "text",
			Rules: []Rule{Required(MsgEmptyPostText)},
			Assign: func(_ context.Context, p *models.Post, v string) error {
				p.Text = v
				return nil
			},
		},
		{
			Name:   "group",
			Rules:  []Rule{ID(MsgInvalidChoice)},
			Assign: assignGroup(groups),
		},
	}
}

func assignGroup(groups GroupFinder) func(context.Context, *models.Post, string) error {
	return func(ctx context.Context, p *models.Post, v string) error {
		if v == "" {
			p.GroupID = nil
			p.Group = nil
			return nil
		}
		id, _ := strconv.ParseUint(v, 10, 64)
		group, err := groups.GetByID(ctx, uint(id))
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return FieldError(MsgInvalidChoice)
			}
			return err
		}
		p.GroupID = &group.ID
		p.Group = group
		return nil
	}
}

// Upload is an optional file submitted with a form.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Empty reports whether no file was submitted.
func (u *Upload) Empty() bool {
	return u == nil || len(u.Content) == 0
}

// PostForm carries a submitted or prefilled post form.
type PostForm struct {
	Values Values
	Image  *Upload
	Errors Errors
}

// NewPostForm returns a form holding the submitted values.
func NewPostForm(values Values, image *Upload) *PostForm {
	return &PostForm{Values: values, Image: image, Errors: Errors{}}
}

// PostFormFrom prefills a form with the current state of post.
func PostFormFrom(post *models.Post) *PostForm {
	values := Values{"text": post.Text}
	if post.GroupID != nil {
		values["group"] = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return &PostForm{Values: values, Errors: Errors{}}
}

// GroupSelected reports whether id is the selected group.
func (f *PostForm) GroupSelected(id uint) bool {
	return f.Values["group"] == strconv.FormatUint(uint64(id), 10)
}
