package service

import (
	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/domain"
)

// Classify returns every content kind present on the message. Each field counts
// on its own, so a message may yield several kinds. Captions are not text.
func Classify(msg *models.Message) []domain.Kind {
	if msg == nil {
		return nil
	}

	var kinds []domain.Kind
	if msg.Text != "" {
		kinds = append(kinds, domain.KindText)
	}
	if len(msg.Photo) > 0 {
		kinds = append(kinds, domain.KindPhoto)
	}
	if msg.Sticker != nil {
		kinds = append(kinds, domain.KindSticker)
	}
	if msg.Video != nil {
		kinds = append(kinds, domain.KindVideo)
	}
	if msg.Animation != nil {
		kinds = append(kinds, domain.KindAnimation)
	}
	if msg.Document != nil {
		kinds = append(kinds, domain.KindDocument)
	}
	if msg.Voice != nil {
		kinds = append(kinds, domain.KindVoice)
	}
	if msg.Audio != nil {
		kinds = append(kinds, domain.KindAudio)
	}
	return kinds
}
