package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/vinodismyname/toolgate/internal/products"
	"github.com/vinodismyname/toolgate/internal/registry"
	"github.com/vinodismyname/toolgate/pkg/mcperr"
	"github.com/vinodismyname/toolgate/pkg/pagination"
)

const productsCollection = "products"

// --- Input / Output Schemas (typed for discovery) ---

// ListProductsInput defines parameters for list_products.
type ListProductsInput struct {
	Query    string `json:"query,omitempty" validate:"omitempty,max=200" jsonschema_description:"Case-insensitive name filter"`
	PageSize int    `json:"page_size,omitempty" validate:"omitempty,gte=1" jsonschema_description:"Products per page (bounded)"`
	Cursor   string `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"Cursor from a previous page"`
}

// PageMeta captures paging metadata.
type PageMeta struct {
	Total      int    `json:"total"`
	Returned   int    `json:"returned"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// ListProductsOutput is one page of products.
type ListProductsOutput struct {
	Products []ProductView `json:"products"`
	Meta     PageMeta      `json:"meta"`
}

// ProductView is a product as returned to clients.
type ProductView struct {
	products.Product
	Price string `json:"price" jsonschema_description:"Formatted price, or Free"`
}

func view(p products.Product) ProductView {
	return ProductView{Product: p, Price: p.PriceDisplay()}
}

// ProductIDInput identifies a product.
type ProductIDInput struct {
	ProductID string `json:"product_id" validate:"required,max=64" jsonschema_description:"Product ID"`
}

// CreateProductInput defines parameters for create_product.
type CreateProductInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	PriceCents  int    `json:"price_cents" validate:"gte=0" jsonschema_description:"Price in cents; 0 for free"`
	Description string `json:"description,omitempty" validate:"omitempty,max=5000"`
	URLSlug     string `json:"url_slug,omitempty" validate:"omitempty,max=100,slug"`
}

// UpdateProductInput defines parameters for update_product.
type UpdateProductInput struct {
	ProductID   string  `json:"product_id" validate:"required,max=64"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	PriceCents  *int    `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	Published   *bool   `json:"published,omitempty"`
}

// DeleteProductOutput confirms a deletion.
type DeleteProductOutput struct {
	ProductID string `json:"product_id"`
	Deleted   bool   `json:"deleted"`
}

func registerProducts(reg *registry.Registry, deps Deps) {
	store := deps.Products
	limits := deps.Limits

	listTool := mcp.NewTool(
		ListProducts,
		mcp.WithDescription("List products in creation order with cursor pagination"),
		mcp.WithString("query", mcp.Description("Case-insensitive name filter")),
		mcp.WithNumber("page_size", mcp.Min(1), mcp.Max(float64(limits.MaxPageSize)), mcp.Description("Products per page")),
		mcp.WithString("cursor", mcp.Description("Cursor from a previous page; other inputs are ignored when set")),
		mcp.WithOutputSchema[ListProductsOutput](),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	declare(reg, listTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ListProductsInput) (*mcp.CallToolResult, error) {
		if res := invalid(in); res != nil {
			return res, nil
		}
		query, offset, size := in.Query, 0, limits.ClampPageSize(in.PageSize)
		if strings.TrimSpace(in.Cursor) != "" {
			cur, err := pagination.DecodeCursor(in.Cursor)
			if err != nil || cur.C != productsCollection {
				return mcperr.New(mcperr.CursorInvalid, ""), nil
			}
			if cur.Sv != store.Version() {
				return mcperr.New(mcperr.CursorInvalid, "products changed since the cursor was issued"), nil
			}
			query, offset, size = cur.Q, cur.Off, limits.ClampPageSize(cur.Ps)
		}

		page, err := store.List(ctx, query, offset, size)
		if err != nil {
			return mcperr.Wrapf(mcperr.ReadFailed, "%v", err), nil
		}
		out := ListProductsOutput{
			Products: make([]ProductView, 0, len(page.Items)),
			Meta:     PageMeta{Total: page.Total, Returned: len(page.Items)},
		}
		for _, p := range page.Items {
			out.Products = append(out.Products, view(p))
		}
		next := pagination.NextOffset(offset, len(page.Items))
		if next < page.Total && len(page.Items) > 0 {
			tok, err := pagination.EncodeCursor(pagination.Cursor{
				C:   productsCollection,
				Off: next,
				Ps:  size,
				Sv:  page.Version,
				Q:   query,
			})
			if err != nil {
				return mcperr.Wrapf(mcperr.CursorBuildFailed, "%v", err), nil
			}
			out.Meta.Truncated = true
			out.Meta.NextCursor = tok
		}
		return mcp.NewToolResultStructuredOnly(out), nil
	}))

	getTool := mcp.NewTool(
		GetProduct,
		mcp.WithDescription("Get a product by ID"),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product ID")),
		mcp.WithOutputSchema[ProductView](),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	declare(reg, getTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ProductIDInput) (*mcp.CallToolResult, error) {
		if res := invalid(in); res != nil {
			return res, nil
		}
		p, err := store.Get(ctx, in.ProductID)
		if err != nil {
			return storeError(err, mcperr.ReadFailed), nil
		}
		return mcp.NewToolResultStructuredOnly(view(p)), nil
	}))

	createTool := mcp.NewTool(
		CreateProduct,
		mcp.WithDescription("Create a product"),
		mcp.WithString("name", mcp.Required(), mcp.MaxLength(200), mcp.Description("Product name")),
		mcp.WithNumber("price_cents", mcp.Required(), mcp.Min(0), mcp.Description("Price in cents (500 = $5.00); 0 for free")),
		mcp.WithString("description", mcp.Description("Product description")),
		mcp.WithString("url_slug", mcp.Description("Custom URL slug")),
		mcp.WithOutputSchema[ProductView](),
		mcp.WithReadOnlyHintAnnotation(false),
	)
	declare(reg, createTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CreateProductInput) (*mcp.CallToolResult, error) {
		if res := invalid(in); res != nil {
			return res, nil
		}
		p, err := store.Create(ctx, products.NewProduct{
			Name:        in.Name,
			Description: in.Description,
			PriceCents:  in.PriceCents,
			URLSlug:     in.URLSlug,
		})
		if err != nil {
			return storeError(err, mcperr.WriteFailed), nil
		}
		deps.Logger.Info().Str("product_id", p.ID).Msg("product created")
		return mcp.NewToolResultStructuredOnly(view(p)), nil
	}))

	updateTool := mcp.NewTool(
		UpdateProduct,
		mcp.WithDescription("Update a product; only provided fields change"),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product ID")),
		mcp.WithString("name", mcp.Description("New name")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithNumber("price_cents", mcp.Min(0), mcp.Description("New price in cents")),
		mcp.WithBoolean("published", mcp.Description("Publish or unpublish")),
		mcp.WithOutputSchema[ProductView](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	declare(reg, updateTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in UpdateProductInput) (*mcp.CallToolResult, error) {
		if res := invalid(in); res != nil {
			return res, nil
		}
		p, err := store.Update(ctx, in.ProductID, products.Patch{
			Name:        in.Name,
			Description: in.Description,
			PriceCents:  in.PriceCents,
			Published:   in.Published,
		})
		if err != nil {
			return storeError(err, mcperr.WriteFailed), nil
		}
		deps.Logger.Info().Str("product_id", p.ID).Msg("product updated")
		return mcp.NewToolResultStructuredOnly(view(p)), nil
	}))

	deleteTool := mcp.NewTool(
		DeleteProduct,
		mcp.WithDescription("Delete a product"),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("Product ID")),
		mcp.WithOutputSchema[DeleteProductOutput](),
		mcp.WithDestructiveHintAnnotation(true),
	)
	declare(reg, deleteTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ProductIDInput) (*mcp.CallToolResult, error) {
		if res := invalid(in); res != nil {
			return res, nil
		}
		if err := store.Delete(ctx, in.ProductID); err != nil {
			return storeError(err, mcperr.WriteFailed), nil
		}
		deps.Logger.Info().Str("product_id", in.ProductID).Msg("product deleted")
		return mcp.NewToolResultStructuredOnly(DeleteProductOutput{ProductID: in.ProductID, Deleted: true}), nil
	}))
}

// storeError maps store errors to tool errors, using fallback for the rest.
func storeError(err error, fallback mcperr.Code) *mcp.CallToolResult {
	switch {
	case errors.Is(err, products.ErrNotFound):
		return mcperr.New(mcperr.NotFound, "")
	case errors.Is(err, products.ErrSlugTaken):
		return mcperr.Wrapf(mcperr.Conflict, "%v", err)
	case errors.Is(err, products.ErrNoChanges):
		return mcperr.New(mcperr.Validation, "no fields to update; provide name, description, price_cents or published")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return mcperr.New(mcperr.Timeout, "")
	}
	return mcperr.Wrapf(fallback, "%v", err)
}
