package services

import (
	"fmt"
	"log"

	"idea-review-api/config"
	"idea-review-api/models"

	"gorm.io/gorm"
)

// NotificationService sends best-effort decision emails to idea authors.
// Failures are logged and never surfaced: the deciding transaction has
// already committed by the time a notification is attempted.
type NotificationService struct {
	db       *gorm.DB
	sendMail func(to []string, subject, html string) error
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, sendMail: config.SendMail}
}

// NotifyDecision emails the author of a decided idea.
func (s *NotificationService) NotifyDecision(idea *models.Idea) {
	if idea == nil {
		return
	}
	if idea.Status != models.StatusAccepted && idea.Status != models.StatusRejected {
		return
	}

	var author models.User
	if err := s.db.Where("user_id = ? AND delete_at IS NULL", idea.AuthorID).First(&author).Error; err != nil {
		log.Printf("Warning: Failed to load author %d for decision notification: %v", idea.AuthorID, err)
		return
	}

	title := idea.IdeaNumber
	if idea.Title != nil && *idea.Title != "" {
		title = *idea.Title
	}

	verdict := "accepted"
	if idea.Status == models.StatusRejected {
		verdict = "rejected"
	}

	subject := fmt.Sprintf("Your idea %s was %s", idea.IdeaNumber, verdict)
	body := fmt.Sprintf("<p>Dear %s,</p><p>Your idea <strong>%s</strong> has been %s.</p>",
		author.DisplayName(), title, verdict)

	if err := s.sendMail([]string{author.Email}, subject, body); err != nil {
		log.Printf("Warning: Failed to send decision notification for idea %d: %v", idea.IdeaID, err)
	}
}
