package models

import "github.com/shopspring/decimal"

type TransactionCategory string

const (
	CategoryPrizeMoney  TransactionCategory = "prize_money"
	CategoryTicketSales TransactionCategory = "ticket_sales"
	CategoryMerchandise TransactionCategory = "merchandise"
	CategorySponsorship TransactionCategory = "sponsorship"
	CategoryBroadcast   TransactionCategory = "broadcast"
	CategorySalaries    TransactionCategory = "salaries"
)

type FinancialTransaction struct {
	ID              int64               `json:"id" db:"id"`
	ClubID          int64               `json:"club_id" db:"club_id"`
	Category        TransactionCategory `json:"category" db:"category"`
	Amount          decimal.Decimal     `json:"amount" db:"amount"`
	TransactionDate Date                `json:"transaction_date" db:"transaction_date"`
	Description     string              `json:"description" db:"description"`
}
