package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"heladeria/internal/infra"
	"heladeria/internal/model"
	"heladeria/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubPedidoRepo struct {
	pedidos    map[uint]*model.Pedido
	pendientes []model.Pedido
	setErr     error
}

func (r *stubPedidoRepo) Create(context.Context, *gorm.DB, *model.Pedido) error { return nil }
func (r *stubPedidoRepo) CreateDetalle(context.Context, *gorm.DB, *model.DetallePedido) error {
	return nil
}
func (r *stubPedidoRepo) FindByID(_ context.Context, id uint) (*model.Pedido, error) {
	p, ok := r.pedidos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}
func (r *stubPedidoRepo) List(context.Context, repository.PedidoFilter) ([]model.Pedido, int64, error) {
	return nil, 0, nil
}
func (r *stubPedidoRepo) UpdateEstado(context.Context, uint, string) error { return nil }
func (r *stubPedidoRepo) TransicionEstado(context.Context, uint, string, string) (bool, error) {
	return false, nil
}
func (r *stubPedidoRepo) SetDireccionGeocodificada(_ context.Context, id uint, dir string) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.pedidos[id].DireccionGeocodificada = &dir
	return nil
}
func (r *stubPedidoRepo) ListPendientesGeocodificacion(context.Context, time.Time, int) ([]model.Pedido, error) {
	return r.pendientes, nil
}

var _ repository.PedidoRepository = (*stubPedidoRepo)(nil)

type stubGeocoder struct {
	dir   infra.Direccion
	err   error
	calls int
}

func (g *stubGeocoder) Reverse(context.Context, float64, float64) (infra.Direccion, error) {
	g.calls++
	return g.dir, g.err
}

type stubCola struct{ ids []uint }

func (c *stubCola) EnqueueGeocodificacion(_ context.Context, id uint) error {
	c.ids = append(c.ids, id)
	return nil
}

func payload(t *testing.T, id uint) json.RawMessage {
	raw, err := json.Marshal(GeocodificacionPayload{PedidoID: id})
	require.NoError(t, err)
	return raw
}

func coords() (*float64, *float64) {
	lat, lng := -28.47, -65.79
	return &lat, &lng
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestGeocodificacion_StoresAddress(t *testing.T) {
	lat, lng := coords()
	repo := &stubPedidoRepo{pedidos: map[uint]*model.Pedido{1: {ID: 1, Latitud: lat, Longitud: lng}}}
	geo := &stubGeocoder{dir: infra.Direccion{FormattedAddress: "Rivadavia 123"}}

	w := NewGeocodificacionWorker(geo, repo)
	require.NoError(t, w.Process(context.Background(), payload(t, 1)))

	require.NotNil(t, repo.pedidos[1].DireccionGeocodificada)
	assert.Equal(t, "Rivadavia 123", *repo.pedidos[1].DireccionGeocodificada)
}

func TestGeocodificacion_EmptyResultIsStoredAsEmpty(t *testing.T) {
	lat, lng := coords()
	repo := &stubPedidoRepo{pedidos: map[uint]*model.Pedido{1: {ID: 1, Latitud: lat, Longitud: lng}}}

	w := NewGeocodificacionWorker(&stubGeocoder{}, repo)
	require.NoError(t, w.Process(context.Background(), payload(t, 1)))

	require.NotNil(t, repo.pedidos[1].DireccionGeocodificada)
	assert.Equal(t, "", *repo.pedidos[1].DireccionGeocodificada)
}

func TestGeocodificacion_GeocoderFailureLeavesColumnNull(t *testing.T) {
	lat, lng := coords()
	repo := &stubPedidoRepo{pedidos: map[uint]*model.Pedido{1: {ID: 1, Latitud: lat, Longitud: lng}}}

	w := NewGeocodificacionWorker(&stubGeocoder{err: infra.ErrCircuitOpen}, repo)
	err := w.Process(context.Background(), payload(t, 1))

	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.Nil(t, repo.pedidos[1].DireccionGeocodificada)
}

func TestGeocodificacion_GoogleCaidoEsReintentable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	lat, lng := coords()
	repo := &stubPedidoRepo{pedidos: map[uint]*model.Pedido{1: {ID: 1, Latitud: lat, Longitud: lng}}}
	geo := infra.NewGeocodingClient("test-key", "es", nil).WithBaseURL(srv.URL)

	w := NewGeocodificacionWorker(geo, repo)
	assert.Error(t, w.Process(context.Background(), payload(t, 1)))
	assert.Nil(t, repo.pedidos[1].DireccionGeocodificada, "pending for the sweep")
}

func TestGeocodificacion_SkipsWithoutCoordsOrAlreadyDone(t *testing.T) {
	lat, lng := coords()
	done := "ya"
	repo := &stubPedidoRepo{pedidos: map[uint]*model.Pedido{
		1: {ID: 1},
		2: {ID: 2, Latitud: lat, Longitud: lng, DireccionGeocodificada: &done},
	}}
	geo := &stubGeocoder{}

	w := NewGeocodificacionWorker(geo, repo)
	require.NoError(t, w.Process(context.Background(), payload(t, 1)))
	require.NoError(t, w.Process(context.Background(), payload(t, 2)))
	require.NoError(t, w.Process(context.Background(), payload(t, 99)))

	assert.Zero(t, geo.calls)
}

func TestGeocodificacion_StoreFailureIsRetryable(t *testing.T) {
	lat, lng := coords()
	repo := &stubPedidoRepo{
		pedidos: map[uint]*model.Pedido{1: {ID: 1, Latitud: lat, Longitud: lng}},
		setErr:  errors.New("db down"),
	}

	w := NewGeocodificacionWorker(&stubGeocoder{}, repo)
	assert.Error(t, w.Process(context.Background(), payload(t, 1)))
}

func TestBarrido_ReenqueuesPending(t *testing.T) {
	repo := &stubPedidoRepo{pendientes: []model.Pedido{{ID: 4}, {ID: 9}}}
	cola := &stubCola{}

	n := NewBarridoGeocodificacion(repo, cola).Ejecutar(context.Background())

	assert.Equal(t, 2, n)
	assert.Equal(t, []uint{4, 9}, cola.ids)
}

func TestWorkerHandlers_ForType(t *testing.T) {
	w := NewGeocodificacionWorker(&stubGeocoder{}, &stubPedidoRepo{})
	h := WorkerHandlers{Geocodificacion: w}

	assert.Equal(t, Handler(w), h.forType(JobGeocodificacion))
	assert.Nil(t, h.forType("email"))
}
