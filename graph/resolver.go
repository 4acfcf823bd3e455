package graph

import (
	"context"
	_ "embed"
	"log/slog"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/kevinaaaquil/bookshelf/middleware"
	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/service"
)

//go:embed schema.graphql
var schemaSDL string

// Resolver is the root resolver for both queries and mutations.
type Resolver struct {
	accounts *service.AccountService
	search   *service.BookSearch
	exports  *service.Exporter
	logger   *slog.Logger
}

func NewResolver(accounts *service.AccountService, search *service.BookSearch, exports *service.Exporter, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{accounts: accounts, search: search, exports: exports, logger: logger}
}

// NewSchema parses the embedded schema and binds it to r.
func NewSchema(r *Resolver, opts ...graphql.SchemaOpt) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, r, opts...)
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	who, err := middleware.RequireUser(ctx, service.MsgNotLoggedIn)
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "me", err)
	}
	user, err := r.accounts.Me(ctx, who)
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "me", err)
	}
	return newUserResolver(user), nil
}

func (r *Resolver) SearchBooks(ctx context.Context, args struct{ Query string }) ([]*bookResolver, error) {
	books, err := r.search.Search(ctx, args.Query)
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "searchBooks", err)
	}
	return newBookResolvers(books), nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authResolver, error) {
	out, err := r.accounts.Login(ctx, args.Email, args.Password)
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "login", err)
	}
	return &authResolver{out}, nil
}

func (r *Resolver) AddUser(ctx context.Context, args struct {
	Username string
	Email    string
	Password string
}) (*authResolver, error) {
	out, err := r.accounts.Signup(ctx, service.SignupInput{
		Username: args.Username,
		Email:    args.Email,
		Password: args.Password,
	})
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "addUser", err)
	}
	return &authResolver{out}, nil
}

type bookInput struct {
	BookID      graphql.ID
	Authors     *[]string
	Description *string
	Title       string
	Image       *string
	Link        *string
}

func (in bookInput) toModel() models.SavedBook {
	b := models.SavedBook{
		BookID: string(in.BookID),
		Title:  in.Title,
	}
	if in.Authors != nil {
		b.Authors = *in.Authors
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Image != nil {
		b.Image = *in.Image
	}
	if in.Link != nil {
		b.Link = *in.Link
	}
	return b
}

func (r *Resolver) SaveBook(ctx context.Context, args struct{ NewBook bookInput }) (*userResolver, error) {
	who, err := middleware.RequireUser(ctx, service.MsgPleaseLogin)
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "saveBook", err)
	}
	user, err := r.accounts.SaveBook(ctx, who, args.NewBook.toModel())
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "saveBook", err)
	}
	return newUserResolver(user), nil
}

func (r *Resolver) RemoveBook(ctx context.Context, args struct{ BookID graphql.ID }) (*userResolver, error) {
	who, err := middleware.RequireUser(ctx, service.MsgPleaseLogin)
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "removeBook", err)
	}
	user, err := r.accounts.RemoveBook(ctx, who, string(args.BookID))
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "removeBook", err)
	}
	return newUserResolver(user), nil
}

func (r *Resolver) ExportSavedBooks(ctx context.Context) (*exportResolver, error) {
	who, err := middleware.RequireUser(ctx, service.MsgPleaseLogin)
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "exportSavedBooks", err)
	}
	out, err := r.exports.ExportSavedBooks(ctx, who)
	if err != nil {
		return nil, toGraphQLError(ctx, r.logger, "exportSavedBooks", err)
	}
	return &exportResolver{out}, nil
}

type userResolver struct {
	u *models.User
}

// newUserResolver returns nil for a nil user so the field resolves to null.
func newUserResolver(u *models.User) *userResolver {
	if u == nil {
		return nil
	}
	return &userResolver{u}
}

func (r *userResolver) ID() graphql.ID {
	return graphql.ID(r.u.ID.Hex())
}

func (r *userResolver) Username() string {
	return r.u.Username
}

func (r *userResolver) Email() string {
	return r.u.Email
}

func (r *userResolver) BookCount() int32 {
	return int32(r.u.BookCount())
}

func (r *userResolver) SavedBooks() []*bookResolver {
	return newBookResolvers(r.u.SavedBooks)
}

type bookResolver struct {
	b models.SavedBook
}

func newBookResolvers(books []models.SavedBook) []*bookResolver {
	out := make([]*bookResolver, 0, len(books))
	for _, b := range books {
		out = append(out, &bookResolver{b})
	}
	return out
}

func (r *bookResolver) BookID() graphql.ID {
	return graphql.ID(r.b.BookID)
}

func (r *bookResolver) Authors() []string {
	if r.b.Authors == nil {
		return []string{}
	}
	return r.b.Authors
}

func (r *bookResolver) Description() *string {
	return optional(r.b.Description)
}

func (r *bookResolver) Title() string {
	return r.b.Title
}

func (r *bookResolver) Image() *string {
	return optional(r.b.Image)
}

func (r *bookResolver) Link() *string {
	return optional(r.b.Link)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type authResolver struct {
	p *service.AuthPayload
}

func (r *authResolver) Token() graphql.ID {
	return graphql.ID(r.p.Token)
}

func (r *authResolver) User() *userResolver {
	return &userResolver{r.p.User}
}

type exportResolver struct {
	e *service.Export
}

func (r *exportResolver) URL() string {
	return r.e.URL
}

func (r *exportResolver) ExpiresAt() string {
	return r.e.ExpiresAt.UTC().Format(time.RFC3339)
}
