package product

import (
	"context"
	"testing"

	"glowloops/internal/domain"
)

type stubRepo struct {
	products []domain.Product
}

func (s *stubRepo) ListAll(_ context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.products = append(s.products, p)
	return &p, nil
}

type prefixResolver string

func (p prefixResolver) ImageURLs(refs []string) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = string(p) + r
	}
	return out
}

func TestListAndGet_ResolveImages(t *testing.T) {
	repo := &stubRepo{products: []domain.Product{
		{ID: "p1", Name: "Halo Hoops", Images: []string{"earrings/halo"}},
		{ID: "p2", Name: "Loop Bracelet"},
	}}
	svc := New(repo, prefixResolver("https://cdn/"))

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Images[0] != "https://cdn/earrings/halo" {
		t.Fatalf("unexpected list %+v", list)
	}

	got, err := svc.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ImageRef() != "https://cdn/earrings/halo" {
		t.Fatalf("unexpected image %q", got.ImageRef())
	}

	if _, err := svc.Get(context.Background(), "missing"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNilResolverLeavesRefs(t *testing.T) {
	repo := &stubRepo{products: []domain.Product{{ID: "p1", Images: []string{"earrings/halo"}}}}
	svc := New(repo, nil)

	got, err := svc.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ImageRef() != "earrings/halo" {
		t.Fatalf("unexpected image %q", got.ImageRef())
	}
}
