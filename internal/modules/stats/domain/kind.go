//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Kind is the content kind a message is counted under
// ENUM(text,photo,sticker,video,animation,document,voice,audio)
type Kind string
