package model

import "slices"

// Role описывает роль пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Roles содержит все допустимые роли.
var Roles = []Role{RoleUser, RoleAdmin}

// Valid сообщает, входит ли роль в закрытый набор.
func (r Role) Valid() bool { return slices.Contains(Roles, r) }

// Category описывает жанр игры в каталоге.
type Category string

const (
	CategoryAction        Category = "Action"
	CategoryAdventure     Category = "Adventure"
	CategoryRPG           Category = "RPG"
	CategoryStrategy      Category = "Strategy"
	CategorySports        Category = "Sports"
	CategoryRacing        Category = "Racing"
	CategorySimulation    Category = "Simulation"
	CategoryPuzzle        Category = "Puzzle"
	CategoryHorror        Category = "Horror"
	CategoryFPS           Category = "FPS"
	CategoryMOBA          Category = "MOBA"
	CategoryBattleRoyale  Category = "Battle Royale"
	CategorySandbox       Category = "Sandbox"
	CategoryEntertainment Category = "Entertainment"
)

// Categories содержит все допустимые жанры.
var Categories = []Category{
	CategoryAction, CategoryAdventure, CategoryRPG, CategoryStrategy,
	CategorySports, CategoryRacing, CategorySimulation, CategoryPuzzle,
	CategoryHorror, CategoryFPS, CategoryMOBA, CategoryBattleRoyale,
	CategorySandbox, CategoryEntertainment,
}

// Valid сообщает, входит ли жанр в закрытый набор.
func (c Category) Valid() bool { return slices.Contains(Categories, c) }

// Platform описывает площадку активации ключа.
type Platform string

const (
	PlatformSteam         Platform = "Steam"
	PlatformEpicGames     Platform = "Epic Games"
	PlatformOrigin        Platform = "Origin"
	PlatformUplay         Platform = "Uplay"
	PlatformGOG           Platform = "GOG"
	PlatformBattleNet     Platform = "Battle.net"
	PlatformRiotGames     Platform = "Riot Games"
	PlatformMultiPlatform Platform = "Multi-platform"
)

// Platforms содержит все допустимые площадки.
var Platforms = []Platform{
	PlatformSteam, PlatformEpicGames, PlatformOrigin, PlatformUplay,
	PlatformGOG, PlatformBattleNet, PlatformRiotGames, PlatformMultiPlatform,
}

// Valid сообщает, входит ли площадка в закрытый набор.
func (p Platform) Valid() bool { return slices.Contains(Platforms, p) }

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// OrderStatuses содержит все статусы заказа.
var OrderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted,
	OrderStatusCancelled, OrderStatusRefunded,
}

// Valid сообщает, входит ли статус в закрытый набор.
func (s OrderStatus) Valid() bool { return slices.Contains(OrderStatuses, s) }

// orderTransitions задаёт переходы, доступные администратору.
// Повтор текущего статуса разрешён отдельно.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusCompleted:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// CanTransitionTo сообщает, может ли заказ перейти из статуса s в target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s == target {
		return true
	}
	return slices.Contains(orderTransitions[s], target)
}

// PaymentMethod описывает способ оплаты.
type PaymentMethod string

const (
	PaymentMethodBank    PaymentMethod = "bank"
	PaymentMethodMomo    PaymentMethod = "momo"
	PaymentMethodZaloPay PaymentMethod = "zalopay"
	PaymentMethodVisa    PaymentMethod = "visa"
	PaymentMethodPayPal  PaymentMethod = "paypal"
)

// PaymentMethods содержит все способы оплаты.
var PaymentMethods = []PaymentMethod{
	PaymentMethodBank, PaymentMethodMomo, PaymentMethodZaloPay,
	PaymentMethodVisa, PaymentMethodPayPal,
}

// Valid сообщает, входит ли способ оплаты в закрытый набор.
func (m PaymentMethod) Valid() bool { return slices.Contains(PaymentMethods, m) }

// PaymentStatus описывает статус оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentStatuses содержит все статусы оплаты.
var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded,
}

// Valid сообщает, входит ли статус оплаты в закрытый набор.
func (s PaymentStatus) Valid() bool { return slices.Contains(PaymentStatuses, s) }
