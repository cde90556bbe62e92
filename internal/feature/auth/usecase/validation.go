package usecase

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"taskly_backend/internal/shared/validation"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8

	// maxFieldLength はname/emailフィールドの最大文字数を定義します。
	maxFieldLength = 255
)

// normalizeEmail はメールアドレスを比較用に正規化します（前後空白除去と小文字化）。
// メールの一意性チェックは大文字小文字を区別しません。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmailFormat はメールアドレスの形式が妥当かを判定します。
func validEmailFormat(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// validatePasswordPolicy はパスワード強度ポリシーを検証し、
// 違反ごとのメッセージをerrsのpasswordフィールドに追加します。
// ポリシー: 8文字以上、英字・大文字・小文字・数字・記号を各1文字以上含むこと。
func validatePasswordPolicy(password string, errs *validation.Error) {
	// 長さは文字数で数える（バイト数ではマルチバイト文字が過大に数えられる）
	if utf8.RuneCountInString(password) < minPasswordLength {
		errs.Add("password", "The password must be at least 8 characters.")
	}

	var hasLetter, hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasLetter = true
			hasUpper = true
		case unicode.IsLower(r):
			hasLetter = true
			hasLower = true
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasLetter {
		errs.Add("password", "The password must contain at least one letter.")
	}
	if !hasUpper || !hasLower {
		errs.Add("password", "The password must contain at least one uppercase and one lowercase letter.")
	}
	if !hasDigit {
		errs.Add("password", "The password must contain at least one number.")
	}
	if !hasSymbol {
		errs.Add("password", "The password must contain at least one symbol.")
	}
}
