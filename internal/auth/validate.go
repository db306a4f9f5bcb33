package auth

import (
	"fmt"
	"regexp"
	"time"
	"unicode"

	"github.com/hitoshi/vestgate/internal/model"
)

// フォームバリデーション。プラットフォームの登録フォームと同じ規則を適用する。
// エラーは対象フィールド名を保持し、UIがフィールド単位で表示できるようにする。

const (
	nameMinLength     = 2
	nameMaxLength     = 20
	phoneMinDigits    = 10
	phoneMaxDigits    = 15
	passwordMinLength = 8
	minimumAge        = 18
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]+$`)
)

// ValidateRegisterInput は登録フォームの全フィールドを検証する。
// 最初に見つかったエラーを返す。
func ValidateRegisterInput(input *RegisterInput) error {
	if err := validateName("firstName", input.FirstName); err != nil {
		return err
	}
	if err := validateName("lastName", input.LastName); err != nil {
		return err
	}
	if err := ValidateEmail(input.Email); err != nil {
		return err
	}
	if err := validatePhone(input.Phone); err != nil {
		return err
	}
	if err := validateDateOfBirth(input.DateOfBirth, time.Now()); err != nil {
		return err
	}
	if err := ValidatePassword(input.Password); err != nil {
		return err
	}
	return nil
}

func validateName(field, value string) error {
	if value == "" {
		return model.NewValidationError(field, "名前を入力してください。")
	}
	if len([]rune(value)) < nameMinLength {
		return model.NewValidationError(field, fmt.Sprintf("名前は%d文字以上で入力してください。", nameMinLength))
	}
	if len([]rune(value)) > nameMaxLength {
		return model.NewValidationError(field, fmt.Sprintf("名前は%d文字以内で入力してください。", nameMaxLength))
	}
	return nil
}

// ValidateEmail はメールアドレスの形式を検証する。
func ValidateEmail(email string) error {
	if email == "" {
		return model.NewValidationError("email", "メールアドレスを入力してください。")
	}
	if !emailPattern.MatchString(email) {
		return model.NewValidationError("email", "メールアドレスの形式が正しくありません。")
	}
	return nil
}

func validatePhone(phone string) error {
	if phone == "" {
		return model.NewValidationError("phone", "電話番号を入力してください。")
	}
	if !phonePattern.MatchString(phone) {
		return model.NewValidationError("phone", "電話番号は数字のみで入力してください。")
	}
	if len(phone) < phoneMinDigits || len(phone) > phoneMaxDigits {
		return model.NewValidationError("phone", fmt.Sprintf("電話番号は%d桁から%d桁で入力してください。", phoneMinDigits, phoneMaxDigits))
	}
	return nil
}

// validateDateOfBirth は生年月日の形式と年齢制限を検証する。
// nowを引数に取るのはテストで基準日を固定するため。
func validateDateOfBirth(dob string, now time.Time) error {
	if dob == "" {
		return model.NewValidationError("dateOfBirth", "生年月日を入力してください。")
	}
	birth, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return model.NewValidationError("dateOfBirth", "生年月日はYYYY-MM-DD形式で入力してください。")
	}
	// 18歳の誕生日を迎えているか
	cutoff := birth.AddDate(minimumAge, 0, 0)
	if cutoff.After(now) {
		return model.NewValidationError("dateOfBirth", fmt.Sprintf("%d歳以上である必要があります。", minimumAge))
	}
	return nil
}

// ValidatePassword はパスワードの強度を検証する。
// 数字、小文字、大文字、記号をそれぞれ1文字以上含む必要がある。
func ValidatePassword(password string) error {
	if password == "" {
		return model.NewValidationError("password", "パスワードを入力してください。")
	}
	if len(password) < passwordMinLength {
		return model.NewValidationError("password", fmt.Sprintf("パスワードは%d文字以上で入力してください。", passwordMinLength))
	}

	var hasDigit, hasLower, hasUpper, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	if !hasDigit {
		return model.NewValidationError("password", "パスワードには数字を1文字以上含めてください。")
	}
	if !hasLower {
		return model.NewValidationError("password", "パスワードには小文字を1文字以上含めてください。")
	}
	if !hasUpper {
		return model.NewValidationError("password", "パスワードには大文字を1文字以上含めてください。")
	}
	if !hasSymbol {
		return model.NewValidationError("password", "パスワードには記号を1文字以上含めてください。")
	}
	return nil
}
