// Package i18n holds the Hungarian user-facing texts of the API.
package i18n

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var Lang = language.Hungarian

var messages = map[string]string{
	// general
	"name_min_length":  "A név legalább 2 karakter hosszú kell legyen.",
	"field_required":   "A mező kitöltése kötelező.",
	"invalid_format":   "Érvénytelen formátum.",
	"invalid_body":     "Érvénytelen kérés törzs.",
	"invalid_id":       "Érvénytelen azonosító.",
	"date_invalid":     "Érvénytelen dátum formátum. Használja az ÉÉÉÉ-HH-NN formátumot.",
	"internal_error":   "Belső szerverhiba történt.",
	"not_found":        "A keresett elem nem található.",
	"conflict":         "Ütközés történt az adatbázisban.",
	"validation_error": "Érvényesítési hiba.",

	// auth
	"invalid_credentials":    "Érvénytelen felhasználónév vagy jelszó.",
	"inactive_user":          "A felhasználói fiók inaktív.",
	"token_expired":          "A munkamenet lejárt. Kérjük, jelentkezzen be újra.",
	"invalid_token":          "Érvénytelen token.",
	"not_authenticated":      "Nem azonosított felhasználó.",
	"not_enough_permissions": "Nincs megfelelő jogosultsága ehhez a művelethez.",
	"admin_exists":           "Már létezik felhasználó, az első adminisztrátor nem hozható létre.",
	"rate_limit_exceeded":    "Túl sok kérés. Kérjük, próbálja újra később.",

	// users
	"user_not_found":      "A felhasználó nem található.",
	"username_exists":     "Ez a felhasználónév már foglalt.",
	"email_exists":        "Ez az email cím már használatban van.",
	"password_min_length": "A jelszó legalább 8 karakter hosszú kell legyen.",
	"password_weak":       "A jelszó túl gyenge. Használjon kis- és nagybetűket, számot.",
	"invalid_role":        "Érvénytelen szerepkör.",
	"cannot_delete_self":  "Saját felhasználói fiókját nem törölheti.",

	// warehouses
	"warehouse_not_found":   "A raktár nem található.",
	"warehouse_name_exists": "Ilyen nevű raktár már létezik.",
	"warehouse_has_bins":    "A raktár nem törölhető, mert tartalmaz tárolóhelyeket.",
	"bin_template_required": "A tárolóhely sablon megadása kötelező.",
	"bin_template_invalid":  "Érvénytelen tárolóhely sablon.",

	// bins
	"bin_not_found":           "A tárolóhely nem található.",
	"bin_code_exists":         "Ilyen kódú tárolóhely már létezik.",
	"bin_not_empty":           "A tárolóhely nem üres, nem törölhető.",
	"bin_has_history":         "A tárolóhelyhez készletmozgások tartoznak, törlés helyett archiválja.",
	"bin_inactive":            "A tárolóhely inaktív.",
	"bin_occupied":            "A tárolóhely foglalt.",
	"bin_already_occupied":    "A tárolóhelyen már másik termék található.",
	"bin_invalid_status":      "Érvénytelen tárolóhely státusz.",
	"bin_archived":            "A tárolóhely archiválva van.",
	"bin_not_archived":        "A tárolóhely nincs archiválva.",
	"bin_invalid_structure":   "A tárolóhely adatai nem felelnek meg a raktár sablonjának.",
	"bulk_conflicts_found":    "Ütköző kódok találhatók: {codes}",
	"bulk_no_bins_generated":  "Nem jött létre egyetlen tárolóhely sem.",
	"bulk_missing_range":      "Hiányzó tartomány a következő mezőhöz: {field}",
	"bulk_invalid_range":      "Érvénytelen tartomány: a kezdőérték nagyobb, mint a végérték ({field}).",
	"bulk_invalid_range_spec": "Érvénytelen tartomány megadás ({field}).",
	"bulk_generation_too_large": "Túl sok tárolóhely generálódna ({count}). A maximum {max}.",
	"bulk_empty_ids":          "Legalább egy azonosító megadása kötelező.",

	// products and suppliers
	"product_not_found":      "A termék nem található.",
	"product_inactive":       "A termék inaktív.",
	"product_sku_exists":     "Ilyen SKU-val már létezik termék.",
	"product_name_required":  "A termék neve kötelező.",
	"product_has_inventory":  "A termék nem törölhető, mert van belőle készlet.",
	"import_file_required":   "Excel fájl feltöltése kötelező (file mező).",
	"import_file_invalid":    "Az Excel fájl nem olvasható.",
	"import_file_empty":      "Az Excel fájl üres.",
	"supplier_not_found":     "A beszállító nem található.",
	"supplier_inactive":      "A beszállító inaktív.",
	"supplier_name_required": "A cég neve kötelező.",
	"supplier_has_inventory": "A beszállító nem törölhető, mert van hozzá tartozó készlet.",
	"invalid_tax_number":     "Érvénytelen adószám formátum.",

	// inventory
	"bin_content_not_found":  "A tárolóhely tartalom nem található.",
	"invalid_quantity":       "A mennyiségnek pozitívnak kell lennie.",
	"insufficient_quantity":  "Nincs elegendő szabad mennyiség.",
	"content_reserved":       "A tétel foglalás alatt áll, előbb a foglalást kell feloldani.",
	"below_reserved":         "Az új mennyiség nem lehet kevesebb a lefoglalt mennyiségnél.",
	"expiry_date_past":       "A lejárati dátumnak a jövőben kell lennie.",
	"freeze_date_future":     "A fagyasztás dátuma nem lehet a mai napnál későbbi.",
	"invalid_dates":          "A minőségmegőrzési dátum nem lehet későbbi, mint a fogyaszthatósági dátum.",
	"invalid_weight":         "A bruttó súly nem lehet kisebb a nettó súlynál.",
	"product_expired":        "A termék lejárt, nem adható ki.",
	"fefo_violation":         "FEFO szabály megsértése: először a(z) {bin} tárolóhelyről kell kiadni (lejárat: {date}).",
	"fefo_override_required": "FEFO felülbíráláshoz menedzser jogosultság és indoklás szükséges.",
	"fefo_shortage":          "Nincs elegendő készlet: kért {requested}, elérhető {available}.",
	"fefo_warning":           "Figyelem: ez nem a legrégebbi lejáratú tétel!",
	"receipt_successful":     "Bevételezés sikeres.",
	"issue_successful":       "Kiadás sikeres.",
	"adjust_successful":      "Készletkorrekció sikeres.",
	"scrap_successful":       "Selejtezés sikeres.",
	"scrap_required":         "Selejtezés szükséges",
	"movement_not_found":     "A mozgás nem található.",
	"invalid_movement_type":  "Érvénytelen mozgástípus.",

	"unknown_supplier":       "Ismeretlen",
	"all_warehouses":         "Összes raktár",

	// reservations
	"reservation_not_found":         "A foglalás nem található.",
	"reservation_successful":        "Foglalás sikeresen létrehozva.",
	"reservation_partial":           "Részleges foglalás: nincs elegendő készlet a teljes mennyiséghez.",
	"reservation_no_stock":          "Nincs elérhető készlet a foglaláshoz.",
	"reservation_fulfilled":         "A foglalás teljesítve.",
	"reservation_cancelled":         "A foglalás törölve.",
	"reservation_already_fulfilled": "A foglalás már teljesítve lett.",
	"reservation_already_cancelled": "A foglalás már törölve lett.",
	"reservation_expired":           "A foglalás lejárt.",
	"reservation_reason_required":   "A törlés indoklása kötelező.",

	// transfers
	"transfer_not_found":             "Az áthelyezés nem található.",
	"transfer_successful":            "Áthelyezés sikeres.",
	"transfer_same_bin":              "A forrás és cél tárolóhely nem lehet azonos.",
	"transfer_different_warehouse":   "A cél tárolóhely másik raktárban van.",
	"transfer_same_warehouse":        "A cél raktár nem lehet azonos a forrás raktárral.",
	"transfer_insufficient_quantity": "Nincs elegendő szabad mennyiség az áthelyezéshez.",
	"transfer_target_occupied":       "A cél tárolóhelyen már másik termék található.",
	"transfer_already_completed":     "Az áthelyezés már befejeződött.",
	"transfer_already_cancelled":     "Az áthelyezés már törölve lett.",
	"transfer_not_dispatched":        "Az áthelyezést előbb el kell indítani (dispatch).",
	"transfer_not_pending":           "Csak függőben lévő áthelyezés indítható el.",
	"transfer_target_bin_required":   "A cél tárolóhely megadása kötelező.",
	"transfer_reason_required":       "A törlés indoklása kötelező.",
	"cross_warehouse_created":        "Raktárközi áthelyezés létrehozva.",
	"cross_warehouse_dispatched":     "Raktárközi áthelyezés elindítva.",
	"cross_warehouse_confirmed":      "Raktárközi áthelyezés átvéve.",
	"cross_warehouse_cancelled":      "Raktárközi áthelyezés törölve.",

	// jobs
	"job_not_found":          "A feladat nem található.",
	"job_trigger_success":    "A feladat sikeresen elindítva.",
	"job_scheduler_stopping": "Az ütemező leáll, új feladat nem indítható.",

	// audit
	"audit_log_not_found": "A napló bejegyzés nem található.",
	"undo_failed":         "A művelet nem vonható vissza.",
	"undo_successful":     "A művelet sikeresen visszavonva.",
}

var roleNames = map[string]string{
	"admin":     "Adminisztrátor",
	"manager":   "Menedzser",
	"warehouse": "Raktáros",
	"viewer":    "Megtekintő",
}

// T returns the message for key, or the key itself when unknown.
func T(key string) string {
	if m, ok := messages[key]; ok {
		return m
	}
	return key
}

// Tf returns the message for key with {name} placeholders substituted
// from pairs given as name, value, name, value...
func Tf(key string, pairs ...string) string {
	msg := T(key)
	if len(pairs) < 2 {
		return msg
	}
	oldnew := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		oldnew = append(oldnew, "{"+pairs[i]+"}", pairs[i+1])
	}
	return strings.NewReplacer(oldnew...).Replace(msg)
}

func RoleName(role string) string {
	if n, ok := roleNames[role]; ok {
		return n
	}
	return role
}

// Upper uppercases with Hungarian casing rules.
func Upper(s string) string {
	// Casers are stateful and must not be shared between goroutines.
	return cases.Upper(Lang).String(s)
}

// FormatNumber renders f with Hungarian grouping and decimal comma, e.g. 1 234,5.
func FormatNumber(f float64) string {
	return message.NewPrinter(Lang).Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
}

// FormatDate renders t as yyyy. MM. dd.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d. %02d. %02d.", t.Year(), int(t.Month()), t.Day())
}
