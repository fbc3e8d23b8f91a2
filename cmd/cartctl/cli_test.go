package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cart "github.com/goliatone/go-cart"
)

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	body := "storage:\n  driver: sqlite\n  path: " + filepath.Join(dir, "data", "cart.db") + "\n" +
		"logging:\n  level: error\n" +
		"activity:\n  enabled: false\n" + extra
	path := filepath.Join(dir, "cartctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCartctlPersistsAcrossInvocations(t *testing.T) {
	cfg := writeConfig(t, "")

	out, _, err := run(t, cfg, "add", "vaso", "Vaso Azul", "45,90")
	require.NoError(t, err)
	assert.Equal(t, "Vaso Azul x1\n", out)

	out, _, err = run(t, cfg, "add", "vaso", "Vaso Azul", "45.90")
	require.NoError(t, err)
	assert.Equal(t, "Vaso Azul x2\n", out)

	_, _, err = run(t, cfg, "add", "prato", "Prato", "10")
	require.NoError(t, err)
	out, _, err = run(t, cfg, "remove", "prato")
	require.NoError(t, err)
	assert.Equal(t, "prato x0\n", out)

	_, _, err = run(t, cfg, "options", "fulfillment", "delivery")
	require.NoError(t, err)
	out, _, err = run(t, cfg, "options", "address", "Rua", "A,", "10")
	require.NoError(t, err)
	assert.Equal(t, "deliveryAddress: Rua A, 10\n", out)

	out, _, err = run(t, cfg, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "total: R$ 91,80")
	assert.Contains(t, out, "items: 2")
	assert.Contains(t, out, "address: Rua A, 10")
	assert.NotContains(t, out, "prato")
}

func TestCartctlDefaultStorageKeepsCartBetweenRuns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cartctl.yaml")
	body := "storage:\n  path: " + filepath.Join(dir, "cart.db") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, _, err := run(t, path, "add", "vaso", "Vaso", "10")
	require.NoError(t, err)

	out, errOut, err := run(t, path, "checkout")
	require.NoError(t, err)
	assert.NotContains(t, errOut, "Seu carrinho está vazio!")
	assert.True(t, strings.HasPrefix(out, "https://wa.me/5535998493844?text="), out)
}

func TestCartctlAddressCanBeCleared(t *testing.T) {
	cfg := writeConfig(t, "")

	_, _, err := run(t, cfg, "add", "vaso", "Vaso", "10")
	require.NoError(t, err)
	_, _, err = run(t, cfg, "options", "fulfillment", "delivery")
	require.NoError(t, err)
	_, _, err = run(t, cfg, "options", "address", "Rua", "B")
	require.NoError(t, err)

	out, _, err := run(t, cfg, "options", "address")
	require.NoError(t, err)
	assert.Equal(t, "deliveryAddress: \n", out)

	out, _, err = run(t, cfg, "checkout", "--message")
	require.NoError(t, err)
	assert.Contains(t, out, "Entrega: Não informado")
}

func TestCartctlCheckoutPrintsLinkAndClears(t *testing.T) {
	cfg := writeConfig(t, "")

	_, _, err := run(t, cfg, "add", "vaso", "Vaso Azul", "45,90")
	require.NoError(t, err)

	out, _, err := run(t, cfg, "checkout", "--message")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "https://wa.me/5535998493844?text="), lines[0])
	assert.Contains(t, out, "• Vaso Azul (x1) - R$ 45,90")
	assert.Contains(t, out, "Pagamento: PIX")
	assert.Contains(t, out, "Retirada no local")

	out, _, err = run(t, cfg, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "cart is empty")
}

func TestCartctlEmptyCheckoutWarns(t *testing.T) {
	cfg := writeConfig(t, "")

	out, errOut, err := run(t, cfg, "checkout")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Seu carrinho está vazio!")
}

func TestCartctlRejectsOptionByPolicy(t *testing.T) {
	cfg := writeConfig(t, "rules:\n  mode: reject\n  payment_method: 'value in [\"pix\", \"card\"]'\n")

	_, _, err := run(t, cfg, "options", "payment", "boleto")
	require.Error(t, err)
	var optionErr *cart.OptionError
	require.ErrorAs(t, err, &optionErr)
	assert.Equal(t, cart.FieldPaymentMethod, optionErr.Field)

	out, _, err := run(t, cfg, "options", "payment", "card")
	require.NoError(t, err)
	assert.Equal(t, "paymentMethod: card\n", out)
}

func TestCartctlRejectsBadPrice(t *testing.T) {
	cfg := writeConfig(t, "")
	_, _, err := run(t, cfg, "add", "vaso", "Vaso", "cheap")
	require.Error(t, err)
}

func TestCartctlRejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cartctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: etcd\n"), 0o644))
	_, _, err := run(t, path, "show")
	require.Error(t, err)
}
