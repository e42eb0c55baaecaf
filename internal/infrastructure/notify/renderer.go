package notify

import (
	"bytes"
	"fmt"
	"text/template"

	apppayment "github.com/Zhima-Mochi/minishop-commerce/internal/application/payment"
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
)

const contentTypeText = "text/plain; charset=utf-8"

var orderTemplate = template.Must(template.New("order").Parse(`Order {{.ID}}
Status: {{.Status}}
Paid with: {{.PaymentMethod}}
Placed: {{.CreatedAt.Format "2006-01-02 15:04 MST"}}

{{range .Lines}}{{.Quantity}} x {{.ProductName}} @ {{.EffectiveUnitPrice.StringFixed 2}} = {{.Subtotal.StringFixed 2}}
{{end}}
Total: {{.Total.StringFixed 2}}
Delivery: {{.Delivery.Method}}{{with .Delivery.Address}}, {{.}}{{end}}
`))

// DocumentRenderer renders a plain-text order summary.
type DocumentRenderer struct{}

func (DocumentRenderer) Render(o *domorder.Order) (apppayment.Document, error) {
	var buf bytes.Buffer
	if err := orderTemplate.Execute(&buf, o); err != nil {
		return apppayment.Document{}, fmt.Errorf("notify: render order %s: %w", o.ID, err)
	}
	return apppayment.Document{
		Subject:     fmt.Sprintf("Your order %s is paid", o.ID),
		Body:        buf.Bytes(),
		ContentType: contentTypeText,
	}, nil
}
