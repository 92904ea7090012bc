package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	version      = "2.1.0"
	command      = "pay"
	currencyCode = "VND"
	orderType    = "other"
	locale       = "vn"

	// ResponseCodeSuccess — код успешной транзакции шлюза.
	ResponseCodeSuccess = "00"

	createDateLayout = "20060102150405"
)

type Config struct {
	TmnCode    string
	HashSecret string
	PaymentURL string
}

// Client строит подписанные платёжные ссылки и проверяет подпись колбэков.
// Канонизация параметров (сортировка ключей + URL-кодирование) обязана
// байт-в-байт совпадать с канонизацией шлюза, иначе подпись не сойдётся.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// BuildPaymentURL собирает ссылку для редиректа на шлюз.
// Сумма передаётся в донгах и масштабируется ×100 по протоколу.
func (c *Client) BuildPaymentURL(returnURL, orderCode string, amount int64, orderInfo, ipAddr, bankCode string, now time.Time) string {
	params := url.Values{}
	params.Set("vnp_Version", version)
	params.Set("vnp_Command", command)
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(amount*100, 10))
	params.Set("vnp_CurrCode", currencyCode)
	params.Set("vnp_TxnRef", orderCode)
	params.Set("vnp_OrderInfo", orderInfo)
	params.Set("vnp_OrderType", orderType)
	params.Set("vnp_Locale", locale)
	params.Set("vnp_ReturnUrl", returnURL)
	params.Set("vnp_IpAddr", ipAddr)
	params.Set("vnp_CreateDate", now.Format(createDateLayout))
	if bankCode != "" {
		params.Set("vnp_BankCode", bankCode)
	}

	query := params.Encode()
	return c.cfg.PaymentURL + "?" + query + "&vnp_SecureHash=" + c.sign(query)
}

// ValidateCallback пересчитывает подпись по всем параметрам, кроме самой
// подписи и её типа, и сравнивает без учёта регистра.
func (c *Client) ValidateCallback(params url.Values) bool {
	got := params.Get("vnp_SecureHash")
	if got == "" {
		return false
	}
	filtered := url.Values{}
	for key, values := range params {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		for _, v := range values {
			filtered.Add(key, v)
		}
	}
	want := c.sign(filtered.Encode())
	return strings.EqualFold(got, want)
}

func (c *Client) sign(canonical string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

var responseMessages = map[string]string{
	"00": "Transaction successful",
	"07": "Amount deducted, transaction flagged as suspicious",
	"09": "Card or account is not registered for internet banking",
	"10": "Card or account verification failed more than 3 times",
	"11": "Payment window expired, please retry the transaction",
	"12": "Card or account is locked",
	"13": "Wrong one-time password, please retry the transaction",
	"24": "Transaction cancelled by the customer",
	"51": "Insufficient funds on the account",
	"65": "Daily transaction limit exceeded",
	"75": "Issuing bank is under maintenance",
	"79": "Wrong payment password entered too many times",
	"99": "Other gateway error",
}

// ResponseMessage переводит код ответа шлюза в человекочитаемый результат.
func (c *Client) ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return "Unknown gateway error"
}
