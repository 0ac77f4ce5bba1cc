package dialog

import "testing"

func TestValidPhone(t *testing.T) {
	valid := []string{
		"+7 900 123 45 67",
		"+79001234567",
		"+7900 123 4567",
	}
	for _, phone := range valid {
		if !ValidPhone(phone) {
			t.Errorf("ValidPhone(%q) = false, want true", phone)
		}
	}

	invalid := []string{
		"+7 900 123 45",    // не хватает цифр
		"89001234567",      // без +7
		"79001234567",
		"+7 900 123 45 678",
		"+7 9oo 123 45 67",
		"",
	}
	for _, phone := range invalid {
		if ValidPhone(phone) {
			t.Errorf("ValidPhone(%q) = true, want false", phone)
		}
	}
}
