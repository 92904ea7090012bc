package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"
	"time"
)

const testSecret = "LRJCRIXGYBLLGENPRTSDG4ZN6F7CVWXA"

func newTestClient() *Client {
	return NewClient(Config{
		TmnCode:    "DEMO0001",
		HashSecret: testSecret,
		PaymentURL: "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
	})
}

func hmacSHA512(secret, payload string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBuildPaymentURL(t *testing.T) {
	c := newTestClient()
	now := time.Date(2025, 11, 8, 14, 30, 0, 0, time.UTC)
	raw := c.BuildPaymentURL("https://shop.example/payment/vnpay/return", "ORD-123456", 250000, "Thanh toan don hang ORD-123456", "203.0.113.7", "", now)

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	query := parsed.Query()

	if got := query.Get("vnp_Amount"); got != "25000000" {
		t.Fatalf("сумма должна масштабироваться x100, получили %s", got)
	}
	if got := query.Get("vnp_TxnRef"); got != "ORD-123456" {
		t.Fatalf("ожидали код заказа в vnp_TxnRef, получили %s", got)
	}
	if got := query.Get("vnp_CreateDate"); got != "20251108143000" {
		t.Fatalf("неверный формат vnp_CreateDate: %s", got)
	}
	if query.Get("vnp_BankCode") != "" {
		t.Fatalf("vnp_BankCode не должен попадать в запрос без кода банка")
	}

	// подпись считается по канонической строке без vnp_SecureHash
	idx := strings.LastIndex(raw, "&vnp_SecureHash=")
	if idx < 0 {
		t.Fatalf("ссылка должна заканчиваться подписью")
	}
	canonical := raw[strings.Index(raw, "?")+1 : idx]
	if got := query.Get("vnp_SecureHash"); got != hmacSHA512(testSecret, canonical) {
		t.Fatalf("подпись не совпала с HMAC-SHA512 канонической строки")
	}
}

func TestBuildPaymentURLWithBankCode(t *testing.T) {
	c := newTestClient()
	raw := c.BuildPaymentURL("https://shop.example/return", "ORD-1", 1000, "test", "127.0.0.1", "NCB", time.Now())
	parsed, _ := url.Parse(raw)
	if got := parsed.Query().Get("vnp_BankCode"); got != "NCB" {
		t.Fatalf("ожидали vnp_BankCode=NCB, получили %s", got)
	}
}

func callbackParams(secret string) url.Values {
	params := url.Values{}
	params.Set("vnp_Amount", "25000000")
	params.Set("vnp_BankCode", "NCB")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_TmnCode", "DEMO0001")
	params.Set("vnp_TransactionNo", "14422574")
	params.Set("vnp_TxnRef", "ORD-123456")
	params.Set("vnp_SecureHash", hmacSHA512(secret, params.Encode()))
	return params
}

func TestValidateCallback(t *testing.T) {
	c := newTestClient()
	if !c.ValidateCallback(callbackParams(testSecret)) {
		t.Fatalf("корректная подпись должна проходить проверку")
	}
}

func TestValidateCallbackCaseInsensitive(t *testing.T) {
	c := newTestClient()
	params := callbackParams(testSecret)
	params.Set("vnp_SecureHash", strings.ToUpper(params.Get("vnp_SecureHash")))
	if !c.ValidateCallback(params) {
		t.Fatalf("сравнение подписи должно игнорировать регистр")
	}
}

func TestValidateCallbackIgnoresHashType(t *testing.T) {
	c := newTestClient()
	params := callbackParams(testSecret)
	params.Set("vnp_SecureHashType", "HMACSHA512")
	if !c.ValidateCallback(params) {
		t.Fatalf("vnp_SecureHashType не должен участвовать в подписи")
	}
}

func TestValidateCallbackTampered(t *testing.T) {
	c := newTestClient()

	tamper := []func(url.Values){
		func(p url.Values) { p.Set("vnp_Amount", "1") },
		func(p url.Values) { p.Set("vnp_TxnRef", "ORD-999999") },
		func(p url.Values) { p.Set("vnp_ResponseCode", "24") },
		func(p url.Values) { p.Del("vnp_SecureHash") },
	}
	for i, mutate := range tamper {
		params := callbackParams(testSecret)
		mutate(params)
		if c.ValidateCallback(params) {
			t.Fatalf("вариант %d: изменённые параметры должны ронять подпись", i)
		}
	}
}

func TestValidateCallbackWrongSecret(t *testing.T) {
	c := newTestClient()
	if c.ValidateCallback(callbackParams("OTHERSECRET")) {
		t.Fatalf("подпись под чужим секретом не должна проходить")
	}
}

func TestResponseMessage(t *testing.T) {
	c := newTestClient()
	if msg := c.ResponseMessage("00"); msg != "Transaction successful" {
		t.Fatalf("неожиданное сообщение для 00: %q", msg)
	}
	if msg := c.ResponseMessage("24"); !strings.Contains(msg, "cancelled") {
		t.Fatalf("неожиданное сообщение для 24: %q", msg)
	}
	if msg := c.ResponseMessage("42"); msg != "Unknown gateway error" {
		t.Fatalf("незнакомый код должен давать общее сообщение, получили %q", msg)
	}
}
