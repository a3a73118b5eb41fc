// Package memory provides an in-memory implementation of all four store
// contracts. It backs the handler tests and serves as a reference for the
// checkout semantics: every mutation runs under one lock, so the
// stock-check/decrement/order-write/cart-clear sequence is atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"shop-service/internal/cart"
	"shop-service/internal/items"
	"shop-service/internal/orders"
	"shop-service/internal/users"

	"github.com/google/uuid"
)

type cartDoc struct {
	id        string
	lines     []cartLine
	createdAt time.Time
	updatedAt time.Time
}

type cartLine struct {
	id       string
	itemID   string
	quantity int
}

// Store keeps everything in maps guarded by a single mutex.
type Store struct {
	mu       sync.Mutex
	items    map[string]items.Item
	carts    map[string]*cartDoc // userID -> cart
	orders   map[string][]orders.Order
	users    map[string]users.User // email -> user
	sessions map[string][]users.DeviceSession
}

func NewStore() *Store {
	return &Store{
		items:    make(map[string]items.Item),
		carts:    make(map[string]*cartDoc),
		orders:   make(map[string][]orders.Order),
		users:    make(map[string]users.User),
		sessions: make(map[string][]users.DeviceSession),
	}
}

// --- items.Store ---

func (s *Store) GetItemByID(_ context.Context, itemID string) (items.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return items.Item{}, items.ErrItemNotFound
	}
	return item, nil
}

func (s *Store) ListItems(_ context.Context, limit, offset int) ([]items.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []items.Item
	for _, item := range s.items {
		list = append(list, item)
	}
	sortItemsByName(list)
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

func (s *Store) InsertItem(_ context.Context, newItem items.NewItem) (items.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	item := items.Item{
		ID:            uuid.NewString(),
		Name:          newItem.Name,
		Description:   newItem.Description,
		PriceCents:    newItem.PriceCents,
		StockQuantity: newItem.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *Store) UpdateItemInDB(_ context.Context, itemID string, update items.UpdateItem) (items.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return items.Item{}, items.ErrItemNotFound
	}
	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.PriceCents != nil {
		item.PriceCents = *update.PriceCents
	}
	if update.StockQuantity != nil {
		item.StockQuantity = *update.StockQuantity
	}
	item.UpdatedAt = time.Now().UTC()
	s.items[itemID] = item
	return item, nil
}

// --- cart.Store ---

func (s *Store) GetCart(_ context.Context, userID string) (cart.Cart, []cart.UnavailableLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.lockedCart(userID)
	lines := s.joinLines(doc)

	kept, unavailable := cart.Repair(lines, func(itemID string) bool {
		_, ok := s.items[itemID]
		return ok
	})

	if len(unavailable) > 0 {
		doc.lines = doc.lines[:0]
		for _, line := range kept {
			doc.lines = append(doc.lines, cartLine{id: line.ID, itemID: line.ItemID, quantity: line.Quantity})
		}
		doc.updatedAt = time.Now().UTC()
	}

	return s.snapshot(userID, doc, kept), unavailable, nil
}

func (s *Store) AddItem(_ context.Context, userID, itemID string, quantity int) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return cart.Cart{}, items.ErrItemNotFound
	}

	doc := s.lockedCart(userID)
	idx := -1
	for i, line := range doc.lines {
		if line.itemID == itemID {
			idx = i
			break
		}
	}

	newQuantity := quantity
	if idx >= 0 {
		newQuantity += doc.lines[idx].quantity
	}
	if newQuantity > item.StockQuantity {
		return cart.Cart{}, &items.InsufficientStockError{
			ItemID: itemID, Name: item.Name, Requested: newQuantity, Available: item.StockQuantity,
		}
	}

	if idx >= 0 {
		doc.lines[idx].quantity = newQuantity
	} else {
		doc.lines = append(doc.lines, cartLine{id: uuid.NewString(), itemID: itemID, quantity: quantity})
	}
	doc.updatedAt = time.Now().UTC()

	return s.snapshot(userID, doc, s.joinLines(doc)), nil
}

func (s *Store) UpdateQuantity(_ context.Context, userID, lineID string, quantity int) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.lockedCart(userID)
	idx := -1
	for i, line := range doc.lines {
		if line.id == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return cart.Cart{}, cart.ErrLineNotFound
	}

	if quantity <= 0 {
		doc.lines = append(doc.lines[:idx], doc.lines[idx+1:]...)
		doc.updatedAt = time.Now().UTC()
		return s.snapshot(userID, doc, s.joinLines(doc)), nil
	}

	item, ok := s.items[doc.lines[idx].itemID]
	if !ok {
		return cart.Cart{}, items.ErrItemNotFound
	}
	if quantity > item.StockQuantity {
		return cart.Cart{}, &items.InsufficientStockError{
			ItemID: item.ID, Name: item.Name, Requested: quantity, Available: item.StockQuantity,
		}
	}

	doc.lines[idx].quantity = quantity
	doc.updatedAt = time.Now().UTC()
	return s.snapshot(userID, doc, s.joinLines(doc)), nil
}

func (s *Store) RemoveLine(_ context.Context, userID, lineID string) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.lockedCart(userID)
	for i, line := range doc.lines {
		if line.id == lineID {
			doc.lines = append(doc.lines[:i], doc.lines[i+1:]...)
			doc.updatedAt = time.Now().UTC()
			return s.snapshot(userID, doc, s.joinLines(doc)), nil
		}
	}
	return cart.Cart{}, cart.ErrLineNotFound
}

// --- orders.Store ---

func (s *Store) CreateOrder(_ context.Context, userID string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.carts[userID]
	if !ok || len(doc.lines) == 0 {
		return orders.Order{}, orders.ErrEmptyCart
	}

	// Validate every line before touching any stock so a late failure
	// cannot leave a partial decrement behind.
	var lines []orders.OrderLine
	for _, line := range doc.lines {
		item, ok := s.items[line.itemID]
		if !ok {
			return orders.Order{}, items.ErrItemNotFound
		}
		if line.quantity > item.StockQuantity {
			return orders.Order{}, &items.InsufficientStockError{
				ItemID: item.ID, Name: item.Name, Requested: line.quantity, Available: item.StockQuantity,
			}
		}
		lines = append(lines, orders.OrderLine{
			ItemID:         item.ID,
			Name:           item.Name,
			Quantity:       line.quantity,
			UnitPriceCents: item.PriceCents,
		})
	}

	for _, line := range lines {
		item := s.items[line.ItemID]
		item.StockQuantity -= line.Quantity
		item.UpdatedAt = time.Now().UTC()
		s.items[line.ItemID] = item
	}

	order := orders.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Status:     orders.StatusCompleted,
		Lines:      lines,
		TotalCents: orders.Total(lines),
		CreatedAt:  time.Now().UTC(),
	}
	s.orders[userID] = append(s.orders[userID], order)

	doc.lines = nil
	doc.updatedAt = time.Now().UTC()

	return order, nil
}

func (s *Store) ListByUser(_ context.Context, userID string) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]orders.Order, len(s.orders[userID]))
	copy(list, s.orders[userID])
	return list, nil
}

// --- users.Store ---

func (s *Store) InsertUser(_ context.Context, newUser users.NewUser) (users.User, error) {
	hash, err := users.HashPassword(newUser.Password)
	if err != nil {
		return users.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(newUser.Email)
	if _, ok := s.users[email]; ok {
		return users.User{}, users.ErrEmailTaken
	}

	now := time.Now().UTC()
	user := users.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{"USER"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[email] = user
	return user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) UpdateLastLogin(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, user := range s.users {
		if user.ID == userID {
			now := time.Now().UTC()
			user.LastLogin = &now
			user.UpdatedAt = now
			s.users[email] = user
			return nil
		}
	}
	return users.ErrUserNotFound
}

func (s *Store) UpsertDeviceSession(_ context.Context, userID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, session := range s.sessions[userID] {
		if session.DeviceID == deviceID {
			s.sessions[userID][i].LastActive = time.Now().UTC()
			return nil
		}
	}
	s.sessions[userID] = append(s.sessions[userID], users.DeviceSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		DeviceID:   deviceID,
		LastActive: time.Now().UTC(),
	})
	return nil
}

func (s *Store) ListDeviceSessions(_ context.Context, userID string) ([]users.DeviceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]users.DeviceSession, len(s.sessions[userID]))
	copy(list, s.sessions[userID])
	return list, nil
}

// --- helpers ---

func (s *Store) lockedCart(userID string) *cartDoc {
	doc, ok := s.carts[userID]
	if !ok {
		now := time.Now().UTC()
		doc = &cartDoc{id: uuid.NewString(), createdAt: now, updatedAt: now}
		s.carts[userID] = doc
	}
	return doc
}

func (s *Store) joinLines(doc *cartDoc) []cart.Line {
	var lines []cart.Line
	for _, l := range doc.lines {
		line := cart.Line{ID: l.id, ItemID: l.itemID, Quantity: l.quantity}
		if item, ok := s.items[l.itemID]; ok {
			line.Name = item.Name
			line.UnitPriceCents = item.PriceCents
			line.StockQuantity = item.StockQuantity
		}
		lines = append(lines, line)
	}
	return lines
}

func (s *Store) snapshot(userID string, doc *cartDoc, lines []cart.Line) cart.Cart {
	return cart.Cart{
		ID:        doc.id,
		UserID:    userID,
		Lines:     lines,
		CreatedAt: doc.createdAt,
		UpdatedAt: doc.updatedAt,
	}
}

func sortItemsByName(list []items.Item) {
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
}
