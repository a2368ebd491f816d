package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMoMo(endpoint string) *MoMo {
	return NewMoMo(MoMoConfig{
		Endpoint:    endpoint,
		PartnerCode: "MOMOTEST",
		AccessKey:   "access-key",
		SecretKey:   "secret-key",
		ReturnURL:   "https://shop.example.com/payment/momo/return",
		NotifyURL:   "https://shop.example.com/payment/momo/notify",
	})
}

func TestMoMoInitiateSignsAndReturnsQR(t *testing.T) {
	var received momoCreateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(momoCreateResponse{
			ResultCode: 0,
			Message:    "Successful.",
			PayURL:     "https://test-payment.momo.vn/pay/abc",
			Deeplink:   "momo://app?action=pay",
		})
	}))
	defer srv.Close()

	m := newTestMoMo(srv.URL)
	order := testOrder()

	res, err := m.Initiate(context.Background(), order)
	require.NoError(t, err)

	// La requête sortante est signée sur les champs canoniques.
	assert.Equal(t, "MOMOTEST", received.PartnerCode)
	assert.Equal(t, int64(570_000), received.Amount)
	assert.Equal(t, order.ID.String(), received.OrderID)
	assert.Equal(t, "captureWallet", received.RequestType)
	assert.Equal(t, m.sign(createSignatureRaw("access-key", received)), received.Signature)
	// L'URL de retour embarque l'identifiant de commande.
	assert.Contains(t, received.RedirectURL, "order_id="+order.ID.String())

	assert.Equal(t, "momo", res.Method)
	assert.True(t, res.Pending)
	assert.Equal(t, "https://test-payment.momo.vn/pay/abc", res.RedirectURL)
	assert.Equal(t, "momo://app?action=pay", res.Deeplink)
	assert.NotEmpty(t, res.QRCodeBase64)
}

func TestMoMoInitiateRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(momoCreateResponse{ResultCode: 41, Message: "Order already exists"})
	}))
	defer srv.Close()

	_, err := newTestMoMo(srv.URL).Initiate(context.Background(), testOrder())
	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, "momo", gatewayErr.Method)
	assert.Contains(t, gatewayErr.Message, "Order already exists")
}

func TestMoMoInitiateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // fermé avant l'appel

	_, err := newTestMoMo(srv.URL).Initiate(context.Background(), testOrder())
	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
}

func TestMoMoVerifyCallback(t *testing.T) {
	m := newTestMoMo("unused")

	v := url.Values{}
	v.Set("partnerCode", "MOMOTEST")
	v.Set("orderId", "3f1e2d3c-0000-0000-0000-000000000000")
	v.Set("requestId", "req-1")
	v.Set("amount", "570000")
	v.Set("orderInfo", "Thanh toán đơn hàng JH202503141509261234")
	v.Set("orderType", "momo_wallet")
	v.Set("transId", "99001122")
	v.Set("resultCode", "0")
	v.Set("message", "Successful.")
	v.Set("payType", "qr")
	v.Set("responseTime", "1742000000000")
	v.Set("extraData", "")

	raw := "accessKey=access-key&amount=570000&extraData=&message=Successful." +
		"&orderId=3f1e2d3c-0000-0000-0000-000000000000&orderInfo=Thanh toán đơn hàng JH202503141509261234" +
		"&orderType=momo_wallet&partnerCode=MOMOTEST&payType=qr&requestId=req-1" +
		"&responseTime=1742000000000&resultCode=0&transId=99001122"
	v.Set("signature", m.sign(raw))

	assert.True(t, m.VerifyCallback(v))
	assert.True(t, Succeeded(v))

	// Montant falsifié : signature invalide.
	v.Set("amount", "1000")
	assert.False(t, m.VerifyCallback(v))

	v.Set("amount", "570000")
	v.Set("resultCode", "1006")
	assert.False(t, Succeeded(v))
	// resultCode participe à la signature.
	assert.False(t, m.VerifyCallback(v))
}
