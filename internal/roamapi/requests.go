package roamapi

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Write actions accepted by the /write endpoint.
const (
	ActionCreateBlock = "create-block"
	ActionMoveBlock   = "move-block"
	ActionUpdateBlock = "update-block"
	ActionDeleteBlock = "delete-block"
	ActionCreatePage  = "create-page"
	ActionUpdatePage  = "update-page"
	ActionDeletePage  = "delete-page"
)

// Block positions.
const (
	OrderFirst = "first"
	OrderLast  = "last"
)

// WriteRequest is a typed, self-validating /write payload.
type WriteRequest interface {
	Action() string
	Validate() error
}

// Location addresses the parent under which a block operation applies.
// Exactly one of ParentUID or PageTitle must be set. Order is "first",
// "last", or a non-negative index.
type Location struct {
	ParentUID string `json:"parent-uid,omitempty"`
	PageTitle string `json:"page-title,omitempty"`
	Order     any    `json:"order"`
}

// Validate implements validation.Validatable.
func (l Location) Validate() error {
	if (l.ParentUID == "") == (l.PageTitle == "") {
		return errors.New("location: exactly one of parent-uid or page-title is required")
	}
	return validateOrder(l.Order)
}

func validateOrder(order any) error {
	switch v := order.(type) {
	case nil:
		return errors.New("location: order is required")
	case string:
		if v != OrderFirst && v != OrderLast {
			return fmt.Errorf("location: order string must be %q or %q, got %q", OrderFirst, OrderLast, v)
		}
	case int:
		if v < 0 {
			return fmt.Errorf("location: order index must be >= 0, got %d", v)
		}
	default:
		return fmt.Errorf("location: order must be a string or int, got %T", order)
	}
	return nil
}

// Block is the block payload of a write action. Heading follows the
// parsed markdown level (1-6); Roam renders levels above 3 as 3.
type Block struct {
	String           string `json:"string,omitempty"`
	UID              string `json:"uid,omitempty"`
	Open             *bool  `json:"open,omitempty"`
	Heading          int    `json:"heading,omitempty"`
	TextAlign        string `json:"text-align,omitempty"`
	ChildrenViewType string `json:"children-view-type,omitempty"`
}

// Validate implements validation.Validatable.
func (b Block) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Heading, validation.Min(0), validation.Max(6)),
		validation.Field(&b.ChildrenViewType, validation.In("document", "bullet", "numbered")),
	)
}

// Page is the page payload of a page write action.
type Page struct {
	UID              string `json:"uid,omitempty"`
	Title            string `json:"title,omitempty"`
	ChildrenViewType string `json:"children-view-type,omitempty"`
}

// Validate implements validation.Validatable.
func (p Page) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ChildrenViewType, validation.In("document", "bullet", "numbered")),
	)
}

// CreateBlockRequest creates a new block under a location.
type CreateBlockRequest struct {
	ActionName string   `json:"action"`
	Location   Location `json:"location"`
	Block      Block    `json:"block"`
}

// NewCreateBlock builds a create-block request appending content at the
// given position under parentUID.
func NewCreateBlock(parentUID, content string, order any) CreateBlockRequest {
	return CreateBlockRequest{
		ActionName: ActionCreateBlock,
		Location:   Location{ParentUID: parentUID, Order: order},
		Block:      Block{String: content},
	}
}

func (r CreateBlockRequest) Action() string { return ActionCreateBlock }

// Validate implements WriteRequest.
func (r CreateBlockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ActionName, validation.Required, validation.In(ActionCreateBlock)),
		validation.Field(&r.Location),
		validation.Field(&r.Block, validation.By(func(any) error {
			if r.Block.String == "" {
				return errors.New("block: string is required")
			}
			return nil
		})),
	)
}

// MoveBlockRequest moves an existing block to a new location.
type MoveBlockRequest struct {
	ActionName string   `json:"action"`
	Location   Location `json:"location"`
	Block      Block    `json:"block"`
}

// NewMoveBlock builds a move-block request.
func NewMoveBlock(uid, newParentUID string, order any) MoveBlockRequest {
	return MoveBlockRequest{
		ActionName: ActionMoveBlock,
		Location:   Location{ParentUID: newParentUID, Order: order},
		Block:      Block{UID: uid},
	}
}

func (r MoveBlockRequest) Action() string { return ActionMoveBlock }

// Validate implements WriteRequest.
func (r MoveBlockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ActionName, validation.Required, validation.In(ActionMoveBlock)),
		validation.Field(&r.Location),
		validation.Field(&r.Block, validation.By(func(any) error {
			if r.Block.UID == "" {
				return errors.New("block: uid is required")
			}
			return nil
		})),
	)
}

// UpdateBlockRequest rewrites an existing block's content or properties.
type UpdateBlockRequest struct {
	ActionName string `json:"action"`
	Block      Block  `json:"block"`
}

// NewUpdateBlock builds an update-block request replacing content.
func NewUpdateBlock(uid, content string) UpdateBlockRequest {
	return UpdateBlockRequest{
		ActionName: ActionUpdateBlock,
		Block:      Block{UID: uid, String: content},
	}
}

func (r UpdateBlockRequest) Action() string { return ActionUpdateBlock }

// Validate implements WriteRequest.
func (r UpdateBlockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ActionName, validation.Required, validation.In(ActionUpdateBlock)),
		validation.Field(&r.Block, validation.By(func(any) error {
			if r.Block.UID == "" {
				return errors.New("block: uid is required")
			}
			return nil
		})),
	)
}

// DeleteBlockRequest removes a block.
type DeleteBlockRequest struct {
	ActionName string `json:"action"`
	Block      Block  `json:"block"`
}

// NewDeleteBlock builds a delete-block request.
func NewDeleteBlock(uid string) DeleteBlockRequest {
	return DeleteBlockRequest{ActionName: ActionDeleteBlock, Block: Block{UID: uid}}
}

func (r DeleteBlockRequest) Action() string { return ActionDeleteBlock }

// Validate implements WriteRequest.
func (r DeleteBlockRequest) Validate() error {
	if r.ActionName != ActionDeleteBlock {
		return fmt.Errorf("action must be %q", ActionDeleteBlock)
	}
	if r.Block.UID == "" {
		return errors.New("block: uid is required")
	}
	return nil
}

// CreatePageRequest creates a page with a title.
type CreatePageRequest struct {
	ActionName string `json:"action"`
	Page       Page   `json:"page"`
}

// NewCreatePage builds a create-page request.
func NewCreatePage(title string) CreatePageRequest {
	return CreatePageRequest{ActionName: ActionCreatePage, Page: Page{Title: title}}
}

func (r CreatePageRequest) Action() string { return ActionCreatePage }

// Validate implements WriteRequest.
func (r CreatePageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ActionName, validation.Required, validation.In(ActionCreatePage)),
		validation.Field(&r.Page, validation.By(func(any) error {
			if r.Page.Title == "" {
				return errors.New("page: title is required")
			}
			return nil
		})),
	)
}

// UpdatePageRequest renames a page.
type UpdatePageRequest struct {
	ActionName string `json:"action"`
	Page       Page   `json:"page"`
}

// NewUpdatePage builds an update-page request.
func NewUpdatePage(uid, title string) UpdatePageRequest {
	return UpdatePageRequest{ActionName: ActionUpdatePage, Page: Page{UID: uid, Title: title}}
}

func (r UpdatePageRequest) Action() string { return ActionUpdatePage }

// Validate implements WriteRequest.
func (r UpdatePageRequest) Validate() error {
	if r.ActionName != ActionUpdatePage {
		return fmt.Errorf("action must be %q", ActionUpdatePage)
	}
	if r.Page.UID == "" {
		return errors.New("page: uid is required")
	}
	return r.Page.Validate()
}

// DeletePageRequest removes a page and its blocks.
type DeletePageRequest struct {
	ActionName string `json:"action"`
	Page       Page   `json:"page"`
}

// NewDeletePage builds a delete-page request.
func NewDeletePage(uid string) DeletePageRequest {
	return DeletePageRequest{ActionName: ActionDeletePage, Page: Page{UID: uid}}
}

func (r DeletePageRequest) Action() string { return ActionDeletePage }

// Validate implements WriteRequest.
func (r DeletePageRequest) Validate() error {
	if r.ActionName != ActionDeletePage {
		return fmt.Errorf("action must be %q", ActionDeletePage)
	}
	if r.Page.UID == "" {
		return errors.New("page: uid is required")
	}
	return nil
}
