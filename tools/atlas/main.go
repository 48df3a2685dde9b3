package main

import (
	"fmt"
	"io"
	"os"

	"ariga.io/atlas-provider-gorm/gormschema"

	"bazar/models"
)

// 給 atlas 的 schema loader，把 GORM 模型轉成 SQL 後輸出到 stdout
func main() {
	stmts, err := gormschema.New("postgres").Load(
		&models.User{},
		&models.Account{},
		&models.AccountMember{},
		&models.Brand{},
		&models.BrandContent{},
		&models.Plan{},
		&models.CreditTransaction{},
		&models.BuyAd{},
		&models.Offer{},
		&models.OfferContent{},
		&models.Attachment{},
		&models.Conversation{},
		&models.Message{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	_, _ = io.WriteString(os.Stdout, stmts)
}
