package product

import (
	"context"

	"glowloops/internal/domain"
	productrepo "glowloops/internal/repository/product"
)

// imageResolver rewrites stored image refs into delivery URLs.
type imageResolver interface {
	ImageURLs(refs []string) []string
}

type Service struct {
	repo   productrepo.Repository
	images imageResolver
}

// New wires the catalog service. images may be nil.
func New(repo productrepo.Repository, images imageResolver) *Service {
	return &Service{repo: repo, images: images}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		s.resolve(&products[i])
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resolve(p)
	return p, nil
}

func (s *Service) resolve(p *domain.Product) {
	if s.images == nil {
		return
	}
	p.Images = s.images.ImageURLs(p.Images)
}
