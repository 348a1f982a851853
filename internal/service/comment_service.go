package service

import (
	"context"
	"strings"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/repository"
	"github.com/google/uuid"
)

type CommentService struct {
	commentRepo    repository.CommentRepository
	restaurantRepo repository.RestaurantRepository
	live           LiveFeed
}

func NewCommentService(commentRepo repository.CommentRepository, restaurantRepo repository.RestaurantRepository, live LiveFeed) *CommentService {
	if live == nil {
		live = nopLiveFeed{}
	}
	return &CommentService{
		commentRepo:    commentRepo,
		restaurantRepo: restaurantRepo,
		live:           live,
	}
}

func (s *CommentService) Add(ctx context.Context, restaurantID, userID uuid.UUID, body string) (*domain.CommentView, error) {
	if err := s.requireRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		RestaurantID: restaurantID,
		UserID:       userID,
		Body:         strings.TrimSpace(body),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	view := comment.View()
	s.live.Publish(restaurantID, domain.LiveEventCommentAdded, view)
	return view, nil
}

// ListByRestaurant returns the restaurant's comments newest first.
func (s *CommentService) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.CommentView, error) {
	if err := s.requireRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	views := make([]*domain.CommentView, len(comments))
	for i, c := range comments {
		views[i] = c.View()
	}
	return views, nil
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, restaurantID, commentID, userID uuid.UUID) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil || comment.RestaurantID != restaurantID {
		return domain.ErrCommentNotFound
	}
	if comment.UserID != userID {
		return domain.ErrForbidden
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}

	s.live.Publish(restaurantID, domain.LiveEventCommentDeleted, map[string]string{"id": commentID.String()})
	return nil
}

func (s *CommentService) requireRestaurant(ctx context.Context, restaurantID uuid.UUID) error {
	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return err
	}
	if restaurant == nil {
		return domain.ErrRestaurantNotFound
	}
	return nil
}
