package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"johnhenry_back_end/internal/models"
)

// MoMoConfig : paramètres marchands fournis par la passerelle.
type MoMoConfig struct {
	Endpoint    string // ex: https://test-payment.momo.vn/v2/gateway/api/create
	PartnerCode string
	AccessKey   string
	SecretKey   string
	ReturnURL   string // retour navigateur après paiement
	NotifyURL   string // IPN serveur-à-serveur
}

// MoMo : portefeuille mobile par QR code. L'initiation est un appel signé
// HMAC-SHA256 à la passerelle ; le client scanne le QR ou suit le deeplink,
// la confirmation arrive par IPN et par retour navigateur, toutes deux
// signées.
type MoMo struct {
	cfg    MoMoConfig
	client *http.Client
}

func NewMoMo(cfg MoMoConfig) *MoMo {
	return &MoMo{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *MoMo) Code() string { return "momo" }

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
	Deeplink   string `json:"deeplink"`
	QRCodeURL  string `json:"qrCodeUrl"`
}

func (m *MoMo) Initiate(ctx context.Context, order *models.Order) (*Result, error) {
	req := momoCreateRequest{
		PartnerCode: m.cfg.PartnerCode,
		RequestID:   uuid.NewString(),
		Amount:      int64(order.TotalAmount),
		OrderID:     order.ID.String(),
		OrderInfo:   "Thanh toán đơn hàng " + order.OrderNumber,
		RedirectURL: fmt.Sprintf("%s?order_id=%s", m.cfg.ReturnURL, order.ID),
		IpnURL:      m.cfg.NotifyURL,
		RequestType: "captureWallet",
		ExtraData:   "",
		Lang:        "vi",
	}
	req.Signature = m.sign(createSignatureRaw(m.cfg.AccessKey, req))

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		log.Println("❌ Passerelle MoMo injoignable:", err)
		return nil, &GatewayError{Method: m.Code(), Message: err.Error()}
	}
	defer resp.Body.Close()

	var created momoCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, &GatewayError{Method: m.Code(), Message: "réponse illisible: " + err.Error()}
	}
	if created.ResultCode != 0 {
		log.Printf("❌ MoMo a refusé la création (%d): %s", created.ResultCode, created.Message)
		return nil, &GatewayError{Method: m.Code(), Message: created.Message}
	}

	// Le QR encode l'URL de paiement ; le client le scanne avec
	// l'application MoMo.
	qrTarget := created.QRCodeURL
	if qrTarget == "" {
		qrTarget = created.PayURL
	}
	png, err := qrcode.Encode(qrTarget, qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}

	log.Printf("📱 Paiement MoMo initié pour %s (%.0f₫)", order.OrderNumber, order.TotalAmount)
	return &Result{
		Method:        m.Code(),
		TransactionID: req.RequestID,
		RedirectURL:   created.PayURL,
		Deeplink:      created.Deeplink,
		QRCodeBase64:  base64.StdEncoding.EncodeToString(png),
		Pending:       true,
	}, nil
}

// VerifyCallback vérifie la signature d'un retour navigateur ou d'un IPN.
// Les champs sont concaténés dans l'ordre alphabétique imposé par la
// passerelle.
func (m *MoMo) VerifyCallback(v url.Values) bool {
	raw := fmt.Sprintf(
		"accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		m.cfg.AccessKey,
		v.Get("amount"),
		v.Get("extraData"),
		v.Get("message"),
		v.Get("orderId"),
		v.Get("orderInfo"),
		v.Get("orderType"),
		v.Get("partnerCode"),
		v.Get("payType"),
		v.Get("requestId"),
		v.Get("responseTime"),
		v.Get("resultCode"),
		v.Get("transId"),
	)
	return hmac.Equal([]byte(m.sign(raw)), []byte(v.Get("signature")))
}

// Succeeded indique si un callback vérifié annonce un paiement réussi.
func Succeeded(v url.Values) bool {
	return v.Get("resultCode") == "0"
}

func createSignatureRaw(accessKey string, r momoCreateRequest) string {
	return fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		accessKey, r.Amount, r.ExtraData, r.IpnURL, r.OrderID, r.OrderInfo,
		r.PartnerCode, r.RedirectURL, r.RequestID, r.RequestType)
}

func (m *MoMo) sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(m.cfg.SecretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
