package email

import (
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/models"
)

// ParseMessage decodes a raw RFC 822 message. The first text/plain and
// text/html leaves become the bodies; image leaves are kept in order.
func ParseMessage(r io.Reader) (models.Email, error) {
	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return models.Email{}, apperr.Parse(err, "read message")
	}

	header := mail.Header{Header: entity.Header}
	email := models.Email{}
	email.Subject, _ = header.Subject()
	email.Date, _ = header.Date()
	if id, err := header.MessageID(); err == nil {
		email.ID = id
	}
	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		email.From = from[0].Address
	}

	err = entity.Walk(func(_ []int, part *message.Entity, err error) error {
		if err != nil {
			return err
		}

		mediaType, params, _ := part.Header.ContentType()
		if strings.HasPrefix(mediaType, "multipart/") {
			return nil
		}

		body, err := io.ReadAll(part.Body)
		if err != nil && !message.IsUnknownCharset(err) {
			return err
		}

		switch {
		case mediaType == "text/html" && email.HTML == "":
			email.HTML = string(body)
		case (mediaType == "text/plain" || mediaType == "") && email.TextPlain == "":
			email.TextPlain = string(body)
		case strings.HasPrefix(mediaType, "image/"):
			email.Images = append(email.Images, models.Attachment{
				Name:        partName(part, params),
				ContentType: mediaType,
				Data:        body,
			})
		}
		return nil
	})
	if err != nil {
		return models.Email{}, apperr.Parse(err, "decode message parts")
	}

	return email, nil
}

func partName(part *message.Entity, params map[string]string) string {
	if _, dispParams, err := part.Header.ContentDisposition(); err == nil {
		if name := dispParams["filename"]; name != "" {
			return decodeWord(name)
		}
	}
	if name := params["name"]; name != "" {
		return decodeWord(name)
	}
	return "ticket"
}

func decodeWord(s string) string {
	dec := new(mime.WordDecoder)
	if out, err := dec.DecodeHeader(s); err == nil {
		return out
	}
	return s
}
