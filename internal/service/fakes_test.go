package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"heladeria/internal/model"
	"heladeria/internal/realtime"
	"heladeria/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store ──────────────────────────────────────────────────────────
// memDB backs every fake repository. Transactions are serialized (the same
// effect FOR UPDATE has on the caja row) and roll back by restoring a
// snapshot taken at BEGIN.

type memDB struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	nextID uint

	cajas     map[uint]model.Caja
	movs      []model.MovimientoCaja
	uniqVenta bool // uniq_mov_por_venta_tipo present

	categorias []model.Categoria
	productos  map[uint]model.Producto
	sabores    map[uint]model.Sabor
	pedidos    map[uint]model.Pedido
	detalles   []model.DetallePedido
	ventas     map[uint]model.VentaPOS
	usuarios   map[uint]model.Usuario
	tienda     *bool

	// abrirBarrier, when set, holds every FindCajaAbierta caller until all
	// of them have looked, forcing the check-then-insert race.
	abrirBarrier *sync.WaitGroup
}

func newMemDB() *memDB {
	return &memDB{
		cajas:     map[uint]model.Caja{},
		uniqVenta: true,
		productos: map[uint]model.Producto{},
		sabores:   map[uint]model.Sabor{},
		pedidos:   map[uint]model.Pedido{},
		ventas:    map[uint]model.VentaPOS{},
		usuarios:  map[uint]model.Usuario{},
	}
}

func (m *memDB) id() uint {
	m.nextID++
	return m.nextID
}

type memState struct {
	nextID   uint
	cajas    map[uint]model.Caja
	movs     []model.MovimientoCaja
	pedidos  map[uint]model.Pedido
	detalles []model.DetallePedido
	ventas   map[uint]model.VentaPOS
}

func (m *memDB) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memState{
		nextID:   m.nextID,
		cajas:    make(map[uint]model.Caja, len(m.cajas)),
		movs:     append([]model.MovimientoCaja(nil), m.movs...),
		pedidos:  make(map[uint]model.Pedido, len(m.pedidos)),
		detalles: append([]model.DetallePedido(nil), m.detalles...),
		ventas:   make(map[uint]model.VentaPOS, len(m.ventas)),
	}
	for k, v := range m.cajas {
		s.cajas[k] = v
	}
	for k, v := range m.pedidos {
		s.pedidos[k] = v
	}
	for k, v := range m.ventas {
		s.ventas[k] = v
	}
	return s
}

func (m *memDB) restore(s memState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID = s.nextID
	m.cajas = s.cajas
	m.movs = s.movs
	m.pedidos = s.pedidos
	m.detalles = s.detalles
	m.ventas = s.ventas
}

// ── Transactor ───────────────────────────────────────────────────────────────

type memTransactor struct {
	db      *memDB
	commits int
}

func (t *memTransactor) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	snap := t.db.snapshot()
	if err := fn(&gorm.DB{}); err != nil {
		t.db.restore(snap)
		return err
	}
	t.commits++
	return nil
}

var _ repository.Transactor = (*memTransactor)(nil)

// ── CajaRepository ───────────────────────────────────────────────────────────

type cajaRepoFake struct{ db *memDB }

var _ repository.CajaRepository = (*cajaRepoFake)(nil)

func (r *cajaRepoFake) CreateCaja(_ context.Context, c *model.Caja) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.cajas {
		if existing.Estado == model.CajaAbierta && c.Estado == model.CajaAbierta {
			return repository.ErrDuplicado
		}
	}
	c.ID = r.db.id()
	r.db.cajas[c.ID] = *c
	return nil
}

func (r *cajaRepoFake) FindCajaAbierta(_ context.Context) (*model.Caja, error) {
	r.db.mu.Lock()
	var found *model.Caja
	for _, c := range r.db.cajas {
		if c.Estado == model.CajaAbierta {
			c := c
			found = &c
		}
	}
	barrier := r.db.abrirBarrier
	r.db.mu.Unlock()

	if barrier != nil {
		barrier.Done()
		barrier.Wait()
	}
	return found, nil
}

func (r *cajaRepoFake) FindCajaByID(_ context.Context, id uint) (*model.Caja, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.cajas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *cajaRepoFake) LockCaja(ctx context.Context, tx *gorm.DB, id uint) (*model.Caja, error) {
	if tx == nil {
		return nil, errors.New("LockCaja outside a transaction")
	}
	return r.FindCajaByID(ctx, id)
}

func (r *cajaRepoFake) CerrarCaja(_ context.Context, _ *gorm.DB, id uint, usuarioID *uint, saldoContado *decimal.Decimal, at time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.cajas[id]
	if !ok || c.Estado != model.CajaAbierta {
		return false, nil
	}
	c.Estado = model.CajaCerrada
	c.FechaCierre = &at
	c.UsuarioCierreID = usuarioID
	c.SaldoCierreEfectivo = saldoContado
	r.db.cajas[id] = c
	return true, nil
}

func (r *cajaRepoFake) ListCajas(_ context.Context, page, limit int) ([]model.Caja, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	all := make([]model.Caja, 0, len(r.db.cajas))
	for _, c := range r.db.cajas {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *cajaRepoFake) CreateMovimiento(_ context.Context, _ *gorm.DB, m *model.MovimientoCaja) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m.ID = r.db.id()
	m.CreatedAt = time.Now()
	r.db.movs = append(r.db.movs, *m)
	return nil
}

func (r *cajaRepoFake) CreateMovimientoVenta(_ context.Context, _ *gorm.DB, m *model.MovimientoCaja) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.uniqVenta {
		for _, existing := range r.db.movs {
			if existing.Tipo == m.Tipo && existing.VentaID != nil && m.VentaID != nil && *existing.VentaID == *m.VentaID {
				return false, nil
			}
		}
	}
	m.ID = r.db.id()
	m.CreatedAt = time.Now()
	r.db.movs = append(r.db.movs, *m)
	return true, nil
}

func (r *cajaRepoFake) FindMovimientoVenta(_ context.Context, _ *gorm.DB, ventaID uint) (*model.MovimientoCaja, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := len(r.db.movs) - 1; i >= 0; i-- {
		m := r.db.movs[i]
		if m.Tipo == model.MovVenta && m.VentaID != nil && *m.VentaID == ventaID {
			return &m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *cajaRepoFake) ListMovimientos(_ context.Context, _ *gorm.DB, cajaID uint) ([]model.MovimientoCaja, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.MovimientoCaja
	for _, m := range r.db.movs {
		if m.CajaID == cajaID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *cajaRepoFake) sumBy(cajaID uint, key func(model.MovimientoCaja) string) map[string]decimal.Decimal {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := map[string]decimal.Decimal{}
	for _, m := range r.db.movs {
		if m.CajaID == cajaID {
			out[key(m)] = out[key(m)].Add(m.Monto)
		}
	}
	return out
}

func (r *cajaRepoFake) SumMovimientosPorTipo(_ context.Context, _ *gorm.DB, cajaID uint) (map[string]decimal.Decimal, error) {
	return r.sumBy(cajaID, func(m model.MovimientoCaja) string { return m.Tipo }), nil
}

func (r *cajaRepoFake) SumMovimientosPorMedio(_ context.Context, _ *gorm.DB, cajaID uint) (map[string]decimal.Decimal, error) {
	return r.sumBy(cajaID, func(m model.MovimientoCaja) string { return m.MedioPago }), nil
}

func (r *cajaRepoFake) SumEfectivo(ctx context.Context, tx *gorm.DB, cajaID uint) (decimal.Decimal, error) {
	porMedio, _ := r.SumMovimientosPorMedio(ctx, tx, cajaID)
	return porMedio[model.MedioEfectivo], nil
}

func (r *cajaRepoFake) DedupeMovimientosVenta(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	newest := map[uint]uint{} // venta_id -> highest movimiento id
	for _, m := range r.db.movs {
		if m.Tipo == model.MovVenta && m.VentaID != nil && m.ID > newest[*m.VentaID] {
			newest[*m.VentaID] = m.ID
		}
	}
	var kept []model.MovimientoCaja
	var removed int64
	for _, m := range r.db.movs {
		if m.Tipo == model.MovVenta && m.VentaID != nil && newest[*m.VentaID] != m.ID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.db.movs = kept
	return removed, nil
}

func (r *cajaRepoFake) EnsureUniqueMovimientoVenta(_ context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.uniqVenta = true
	return nil
}

func (r *cajaRepoFake) ventaMovs(ventaID uint) []model.MovimientoCaja {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.MovimientoCaja
	for _, m := range r.db.movs {
		if m.Tipo == model.MovVenta && m.VentaID != nil && *m.VentaID == ventaID {
			out = append(out, m)
		}
	}
	return out
}

// ── CatalogoRepository ───────────────────────────────────────────────────────

type catalogoRepoFake struct{ db *memDB }

var _ repository.CatalogoRepository = (*catalogoRepoFake)(nil)

func (r *catalogoRepoFake) FindProducto(_ context.Context, _ *gorm.DB, id uint) (*model.Producto, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *catalogoRepoFake) FindSabores(_ context.Context, _ *gorm.DB, ids []uint) ([]model.Sabor, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Sabor
	for _, id := range ids {
		if s, ok := r.db.sabores[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *catalogoRepoFake) ListCategorias(_ context.Context) ([]model.Categoria, error) {
	return r.db.categorias, nil
}

func (r *catalogoRepoFake) ListProductos(_ context.Context) ([]model.Producto, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Producto
	for _, p := range r.db.productos {
		if p.Disponible {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *catalogoRepoFake) ListSabores(_ context.Context) ([]model.Sabor, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Sabor
	for _, s := range r.db.sabores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *catalogoRepoFake) DeleteProducto(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.productos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, d := range r.db.detalles {
		if d.ProductoID == id {
			return repository.ErrEnUso
		}
	}
	delete(r.db.productos, id)
	return nil
}

// ── PedidoRepository ─────────────────────────────────────────────────────────

type pedidoRepoFake struct {
	db *memDB
	// failDetalleAt makes the n-th CreateDetalle call (1-based) fail.
	failDetalleAt int
	detalleCalls  int
}

var _ repository.PedidoRepository = (*pedidoRepoFake)(nil)

func (r *pedidoRepoFake) Create(_ context.Context, _ *gorm.DB, p *model.Pedido) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p.ID = r.db.id()
	stored := *p
	stored.Detalles = nil
	r.db.pedidos[p.ID] = stored
	return nil
}

func (r *pedidoRepoFake) CreateDetalle(_ context.Context, _ *gorm.DB, d *model.DetallePedido) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.detalleCalls++
	if r.failDetalleAt > 0 && r.detalleCalls == r.failDetalleAt {
		return errors.New("insert detalle: connection reset")
	}
	d.ID = r.db.id()
	r.db.detalles = append(r.db.detalles, *d)
	return nil
}

func (r *pedidoRepoFake) FindByID(_ context.Context, id uint) (*model.Pedido, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.pedidos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, d := range r.db.detalles {
		if d.PedidoID == id {
			d.Producto = r.db.productos[d.ProductoID]
			p.Detalles = append(p.Detalles, d)
		}
	}
	return &p, nil
}

func (r *pedidoRepoFake) List(_ context.Context, f repository.PedidoFilter) ([]model.Pedido, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Pedido
	for _, p := range r.db.pedidos {
		if f.Estado == "" || p.Estado == f.Estado {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r *pedidoRepoFake) UpdateEstado(_ context.Context, id uint, estado string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.pedidos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Estado = estado
	r.db.pedidos[id] = p
	return nil
}

func (r *pedidoRepoFake) TransicionEstado(_ context.Context, id uint, desde, hacia string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.pedidos[id]
	if !ok || p.Estado != desde {
		return false, nil
	}
	p.Estado = hacia
	r.db.pedidos[id] = p
	return true, nil
}

func (r *pedidoRepoFake) SetDireccionGeocodificada(_ context.Context, id uint, direccion string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.pedidos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.DireccionGeocodificada = &direccion
	r.db.pedidos[id] = p
	return nil
}

func (r *pedidoRepoFake) ListPendientesGeocodificacion(_ context.Context, olderThan time.Time, limit int) ([]model.Pedido, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Pedido
	for _, p := range r.db.pedidos {
		if p.Latitud != nil && p.DireccionGeocodificada == nil && p.FechaPedido.Before(olderThan) && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *pedidoRepoFake) count() (pedidos, detalles int) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.pedidos), len(r.db.detalles)
}

// ── VentaPOSRepository ───────────────────────────────────────────────────────

type ventaRepoFake struct{ db *memDB }

var _ repository.VentaPOSRepository = (*ventaRepoFake)(nil)

func (r *ventaRepoFake) Create(_ context.Context, _ *gorm.DB, v *model.VentaPOS) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v.ID = r.db.id()
	v.CreatedAt = time.Now()
	for i := range v.Items {
		v.Items[i].ID = r.db.id()
		v.Items[i].VentaID = v.ID
	}
	r.db.ventas[v.ID] = *v
	return nil
}

func (r *ventaRepoFake) FindByID(_ context.Context, id uint) (*model.VentaPOS, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v, ok := r.db.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r *ventaRepoFake) ListByCaja(_ context.Context, cajaID uint) ([]model.VentaPOS, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.VentaPOS
	for _, v := range r.db.ventas {
		if v.CajaID == cajaID {
			out = append(out, v)
		}
	}
	return out, nil
}

// ── TiendaRepository / UsuarioRepository ─────────────────────────────────────

type tiendaRepoFake struct {
	db  *memDB
	err error
}

var _ repository.TiendaRepository = (*tiendaRepoFake)(nil)

func (r *tiendaRepoFake) GetAbierta(_ context.Context) (*bool, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.tienda, nil
}

func (r *tiendaRepoFake) SetAbierta(_ context.Context, abierta bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.tienda = &abierta
	return nil
}

type usuarioRepoFake struct{ db *memDB }

var _ repository.UsuarioRepository = (*usuarioRepoFake)(nil)

func (r *usuarioRepoFake) Create(_ context.Context, u *model.Usuario) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.usuarios {
		if existing.Username == u.Username {
			return repository.ErrDuplicado
		}
	}
	u.ID = r.db.id()
	r.db.usuarios[u.ID] = *u
	return nil
}

func (r *usuarioRepoFake) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.usuarios {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *usuarioRepoFake) FindByID(_ context.Context, id uint) (*model.Usuario, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *usuarioRepoFake) Update(_ context.Context, u *model.Usuario) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.usuarios[u.ID] = *u
	return nil
}

// ── Publisher / Encolador ────────────────────────────────────────────────────

type publicado struct {
	grupo string
	msg   realtime.Mensaje
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []publicado
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, grupo string, msg realtime.Mensaje) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, publicado{grupo: grupo, msg: msg})
	return p.err
}

func (p *recordingPublisher) all() []publicado {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publicado(nil), p.msgs...)
}

type recordingCola struct {
	mu  sync.Mutex
	ids []uint
}

func (c *recordingCola) EnqueueGeocodificacion(_ context.Context, pedidoID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, pedidoID)
	return nil
}

// ── Fixtures ─────────────────────────────────────────────────────────────────

func (m *memDB) addProducto(nombre, precio string, saboresMax int) model.Producto {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.Producto{
		ID:             m.id(),
		Nombre:         nombre,
		Precio:         decimal.RequireFromString(precio),
		SaboresMaximos: saboresMax,
		Disponible:     true,
	}
	m.productos[p.ID] = p
	return p
}

func (m *memDB) addSabor(nombre string) model.Sabor {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Sabor{ID: m.id(), Nombre: nombre, Disponible: true}
	m.sabores[s.ID] = s
	return s
}

func (m *memDB) addCajaAbierta(saldo string) model.Caja {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := model.Caja{
		ID:                   m.id(),
		Estado:               model.CajaAbierta,
		FechaApertura:        time.Now(),
		SaldoInicialEfectivo: decimal.RequireFromString(saldo),
	}
	m.cajas[c.ID] = c
	return c
}
