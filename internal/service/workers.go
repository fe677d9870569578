package service

import (
	"context"
	"fmt"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

const (
	DefaultWorkersPageSize = 20
	MaxWorkersPageSize     = 100
)

// WorkersQuery selects one page of the directory. Page is 1-based.
type WorkersQuery struct {
	Page     int
	PageSize int
	Role     domainauth.Role
	Search   string
}

// WorkersPage is one page of directory accounts.
type WorkersPage struct {
	Workers  []domainauth.User
	Total    int
	Page     int
	PageSize int
}

// HasPrev reports whether an earlier page exists.
func (p WorkersPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a later page exists.
func (p WorkersPage) HasNext() bool { return p.Page*p.PageSize < p.Total }

// TotalPages is at least 1 so an empty directory still renders page 1 of 1.
func (p WorkersPage) TotalPages() int {
	if p.Total == 0 || p.PageSize <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// WorkersService lists directory accounts for the workers page.
// A nil directory means no directory backend is configured.
type WorkersService struct {
	dir ports.UserDirectory
}

// NewWorkersService wraps dir, which may be nil.
func NewWorkersService(dir ports.UserDirectory) *WorkersService {
	return &WorkersService{dir: dir}
}

// Available reports whether a directory backs the page.
func (s *WorkersService) Available() bool { return s != nil && s.dir != nil }

// List returns the requested page, clamping paging parameters.
func (s *WorkersService) List(ctx context.Context, q WorkersQuery) (WorkersPage, error) {
	if !s.Available() {
		return WorkersPage{Page: 1, PageSize: DefaultWorkersPageSize}, nil
	}

	size := q.PageSize
	if size <= 0 {
		size = DefaultWorkersPageSize
	}
	size = min(size, MaxWorkersPageSize)
	page := max(q.Page, 1)

	opts := ports.UserListOptions{Role: q.Role, Search: q.Search}
	total, err := s.dir.Count(ctx, opts)
	if err != nil {
		return WorkersPage{}, fmt.Errorf("count workers: %w", err)
	}

	out := WorkersPage{Total: total, Page: page, PageSize: size}
	if (page-1)*size >= total {
		return out, nil
	}

	opts.Limit = size
	opts.Offset = (page - 1) * size
	workers, err := s.dir.List(ctx, opts)
	if err != nil {
		return WorkersPage{}, fmt.Errorf("list workers: %w", err)
	}
	out.Workers = workers
	return out, nil
}
