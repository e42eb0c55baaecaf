package payment

import (
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
)

// Document is a rendered order summary ready to attach to a notification.
type Document struct {
	Subject     string
	Body        []byte
	ContentType string
}

// DocumentRenderer turns a paid order into the document sent to its owner.
type DocumentRenderer interface {
	Render(o *domorder.Order) (Document, error)
}
