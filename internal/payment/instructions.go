package payment

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"storefront-be/internal/backend"
	"storefront-be/internal/utils"
)

const (
	MethodBankTransfer = "BANK_TRANSFER"
	MethodCOD          = "COD"
)

const (
	vietQRBaseURL         = "https://img.vietqr.io/image"
	DefaultVietQRTemplate = "compact2"
)

var InstructionMap = map[string][]string{
	MethodBankTransfer: {
		"Mở ứng dụng ngân hàng và chọn quét mã QR",
		"Quét mã QR hoặc chuyển khoản thủ công tới tài khoản bên dưới",
		"Nhập đúng số tiền {{amount}}",
		"Nhập đúng nội dung chuyển khoản {{content}}",
		"Hoàn tất thanh toán trong vòng 15 phút, đơn hàng sẽ được xác nhận tự động",
	},

	MethodCOD: {
		"Đơn hàng sẽ được giao tới địa chỉ của bạn",
		"Chuẩn bị {{amount}} tiền mặt khi shipper giao hàng",
		"Kiểm tra hàng trước khi thanh toán cho shipper",
	},
}

func GetInstructions(method string) []string {
	if steps, ok := InstructionMap[strings.ToUpper(method)]; ok {
		return steps
	}

	return []string{
		"Vui lòng làm theo hướng dẫn thanh toán trên màn hình",
	}
}

type InstructionVars map[string]string

func InjectVariables(
	steps []string,
	vars InstructionVars,
) []string {
	result := make([]string, 0, len(steps))

	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(
				updated,
				"{{"+key+"}}",
				value,
			)
		}
		result = append(result, updated)
	}

	return result
}

// TransferDetails is everything the QR view renders for a bank transfer order.
type TransferDetails struct {
	BankBin       string   `json:"bankBin"`
	BankName      string   `json:"bankName,omitempty"`
	AccountNumber string   `json:"accountNumber"`
	AccountName   string   `json:"accountName,omitempty"`
	Amount        int64    `json:"amount"`
	AmountText    string   `json:"amountText"`
	Content       string   `json:"content"`
	QRImageURL    string   `json:"qrImageUrl"`
	Instructions  []string `json:"instructions"`
}

// VietQRURL builds a VietQR quick-link image URL.
func VietQRURL(bankBin, accountNumber, template string, amount int64, content, accountName string) string {
	if template == "" {
		template = DefaultVietQRTemplate
	}

	q := url.Values{}
	if amount > 0 {
		q.Set("amount", strconv.FormatInt(amount, 10))
	}
	if content != "" {
		q.Set("addInfo", content)
	}
	if accountName != "" {
		q.Set("accountName", accountName)
	}

	u := fmt.Sprintf("%s/%s-%s-%s.png",
		vietQRBaseURL,
		url.PathEscape(bankBin),
		url.PathEscape(accountNumber),
		url.PathEscape(template),
	)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// BuildTransferDetails fails with ErrIncompleteBanking when the order
// carries no bank bin or account number.
func BuildTransferDetails(t *backend.OrderTracking, template string) (*TransferDetails, error) {
	if t == nil || strings.TrimSpace(t.BankBin) == "" || strings.TrimSpace(t.BankAccountNumber) == "" {
		return nil, ErrIncompleteBanking
	}

	content := t.TransferContent
	if content == "" {
		content = t.OrderNumber
	}

	amountText := utils.FormatVND(t.Total)
	return &TransferDetails{
		BankBin:       t.BankBin,
		BankName:      t.BankName,
		AccountNumber: t.BankAccountNumber,
		AccountName:   t.BankAccountName,
		Amount:        t.Total,
		AmountText:    amountText,
		Content:       content,
		QRImageURL:    VietQRURL(t.BankBin, t.BankAccountNumber, template, t.Total, content, t.BankAccountName),
		Instructions: InjectVariables(GetInstructions(MethodBankTransfer), InstructionVars{
			"amount":  amountText,
			"content": content,
		}),
	}, nil
}
