package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/simplelearn-uz/convertbot/internal/i18n"
	"github.com/simplelearn-uz/convertbot/types"
)

const ParseModeHTML = "HTML"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func FileLine(lang i18n.Lang, fileName string) string {
	name := strings.TrimSpace(fileName)
	if name == "" {
		name = pick(lang, "fayl", "файл", "file")
	}
	label := pick(lang, "Fayl", "Файл", "File")
	return fmt.Sprintf("📄 <b>%s:</b> %s", label, Escape(name))
}

// pick returns the uz/ru/en variant for the language.
func pick(lang i18n.Lang, uz, ru, en string) string {
	switch lang {
	case i18n.RU:
		return ru
	case i18n.EN:
		return en
	default:
		return uz
	}
}

func StartWelcome(lang i18n.Lang) string {
	return pick(lang,
		"👋 <b>Salom!</b>\nMen fayllarni konvertatsiya qilaman.\n\n📎 Fayl yuboring va tugmalardan formatni tanlang.",
		"👋 <b>Привет!</b>\nЯ конвертирую файлы.\n\n📎 Отправьте файл и выберите формат в кнопках.",
		"👋 <b>Hi!</b>\nI convert files.\n\n📎 Send a file and pick a target format from the buttons.")
}

func Help(lang i18n.Lang) string {
	return pick(lang,
		"ℹ️ <b>Yordam</b>\n/start — boshlash\n/formats — formatlar\n/subscribe — premium\n/language — til\n/cancel — bekor qilish",
		"ℹ️ <b>Помощь</b>\n/start — начать\n/formats — форматы\n/subscribe — премиум\n/language — язык\n/cancel — отмена",
		"ℹ️ <b>Help</b>\n/start — start\n/formats — supported formats\n/subscribe — premium\n/language — language\n/cancel — cancel")
}

func ChooseLanguage() string {
	return "🌐 Tilni tanlang / Выберите язык / Choose a language:"
}

func LanguageSet(lang i18n.Lang) string {
	return pick(lang, "✅ Til o'rnatildi: O'zbekcha", "✅ Язык установлен: Русский", "✅ Language set: English")
}

func FormatsHeader(lang i18n.Lang) string {
	return pick(lang,
		"🧩 <b>Qo'llab-quvvatlanadigan formatlar</b>\n",
		"🧩 <b>Поддерживаемые форматы</b>\n",
		"🧩 <b>Supported formats</b>\n")
}

func FileReceivedChooseFormat(lang i18n.Lang, fileName string) string {
	head := pick(lang, "📥 <b>Fayl qabul qilindi</b>", "📥 <b>Файл получен</b>", "📥 <b>File received</b>")
	tail := pick(lang, "Formatni tanlang:", "Выберите формат:", "Pick a target format:")
	return head + "\n" + FileLine(lang, fileName) + "\n\n" + tail
}

func ErrorUnsupportedFormat(lang i18n.Lang, ext string) string {
	head := pick(lang,
		"🚫 <b>Bu format qo'llab-quvvatlanmaydi</b>",
		"🚫 <b>Формат не поддерживается</b>",
		"🚫 <b>Unsupported format</b>")
	if ext == "" {
		return head
	}
	return head + fmt.Sprintf("\n<code>.%s</code>", Escape(ext))
}

func ErrorFileTooLarge(lang i18n.Lang, maxMB int64) string {
	return pick(lang,
		fmt.Sprintf("🚫 <b>Fayl juda katta</b>\nMaksimal hajm: %d MB\n\n⭐ Kattaroq fayllar uchun /subscribe", maxMB),
		fmt.Sprintf("🚫 <b>Файл слишком большой</b>\nМаксимум: %d МБ\n\n⭐ Для больших файлов — /subscribe", maxMB),
		fmt.Sprintf("🚫 <b>File too large</b>\nLimit: %d MB\n\n⭐ Get bigger uploads with /subscribe", maxMB))
}

func ErrorQuotaExceeded(lang i18n.Lang, dailyLimit int) string {
	return pick(lang,
		fmt.Sprintf("⏳ <b>Kunlik limit tugadi</b> (%d ta)\nErtaga qaytaring yoki /subscribe orqali cheksiz oling.", dailyLimit),
		fmt.Sprintf("⏳ <b>Дневной лимит исчерпан</b> (%d)\nВозвращайтесь завтра или оформите /subscribe.", dailyLimit),
		fmt.Sprintf("⏳ <b>Daily limit reached</b> (%d)\nCome back tomorrow or go unlimited with /subscribe.", dailyLimit))
}

func ConversionStarted(lang i18n.Lang, fileName, targetExt string) string {
	head := pick(lang,
		"⚙️ <b>Konvertatsiya boshlandi</b>",
		"⚙️ <b>Конвертация началась</b>",
		"⚙️ <b>Converting</b>")
	return head + "\n" + FileLine(lang, fileName) + fmt.Sprintf("\n➡️ <code>.%s</code>", Escape(targetExt))
}

func ConversionDone(lang i18n.Lang, remaining int) string {
	head := pick(lang, "✅ <b>Tayyor!</b>", "✅ <b>Готово!</b>", "✅ <b>Done!</b>")
	if remaining < 0 {
		return head
	}
	return head + "\n" + pick(lang,
		fmt.Sprintf("Bugun yana %d ta konvertatsiya qoldi.", remaining),
		fmt.Sprintf("Сегодня осталось конвертаций: %d.", remaining),
		fmt.Sprintf("%d conversions left today.", remaining))
}

func ErrorConversionFailed(lang i18n.Lang, fileName string) string {
	head := pick(lang,
		"🚫 <b>Konvertatsiya xatosi</b>",
		"🚫 <b>Ошибка конвертации</b>",
		"🚫 <b>Conversion failed</b>")
	return head + "\n" + FileLine(lang, fileName)
}

func ErrorDefault(lang i18n.Lang) string {
	return pick(lang,
		"🚫 <b>Xatolik</b>\nYana urinib ko'ring.",
		"🚫 <b>Ошибка</b>\nПопробуйте ещё раз.",
		"🚫 <b>Something went wrong</b>\nPlease try again.")
}

func ErrorUnsupportedMessageType(lang i18n.Lang) string {
	return pick(lang,
		"🤖 <b>Bunday xabarni tushunmayman</b>\nFayl yuboring.",
		"🤖 <b>Я так не умею</b>\nОтправьте файл.",
		"🤖 <b>I can't handle that</b>\nSend me a file.")
}

func CategoryFormats(lang i18n.Lang, icon string, names []string) string {
	head := pick(lang, "Fayl yuboring:", "Отправьте файл:", "Send a file:")
	return icon + " " + Escape(strings.Join(names, ", ")) + "\n\n📎 " + head
}

func SubscriptionStatus(lang i18n.Lang, expiresAt time.Time) string {
	date := expiresAt.Format("2006-01-02")
	return pick(lang,
		"⭐ <b>Premium faol</b>\nAmal qilish muddati: "+date+"\nKonvertatsiyalar: cheksiz",
		"⭐ <b>Премиум активен</b>\nДействует до: "+date+"\nКонвертации: безлимит",
		"⭐ <b>Premium active</b>\nValid until: "+date+"\nConversions: unlimited")
}

func SubscribeIntro(lang i18n.Lang) string {
	return pick(lang,
		"⭐ <b>Premium obuna</b>\nCheksiz konvertatsiya va 500 MB gacha fayllar.\n\nTarifni tanlang:",
		"⭐ <b>Премиум подписка</b>\nБезлимитные конвертации и файлы до 500 МБ.\n\nВыберите тариф:",
		"⭐ <b>Premium subscription</b>\nUnlimited conversions and files up to 500 MB.\n\nPick a plan:")
}

func PaymentInstructions(lang i18n.Lang, planName string, amount int64, cardNumber string) string {
	return pick(lang,
		fmt.Sprintf("💳 <b>To'lov</b>\nTarif: %s\nSumma: %d so'm\n\nKarta: <code>%s</code>\n\nTo'lovdan so'ng chek skrinshotini yuboring.",
			Escape(planName), amount, Escape(cardNumber)),
		fmt.Sprintf("💳 <b>Оплата</b>\nТариф: %s\nСумма: %d сум\n\nКарта: <code>%s</code>\n\nПосле оплаты отправьте скриншот чека.",
			Escape(planName), amount, Escape(cardNumber)),
		fmt.Sprintf("💳 <b>Payment</b>\nPlan: %s\nAmount: %d UZS\n\nCard: <code>%s</code>\n\nSend a screenshot of the receipt after paying.",
			Escape(planName), amount, Escape(cardNumber)))
}

func ProofReceived(lang i18n.Lang) string {
	return pick(lang,
		"🧾 <b>Chek qabul qilindi</b>\nAdmin tasdiqlashini kuting.",
		"🧾 <b>Чек получен</b>\nОжидайте подтверждения администратора.",
		"🧾 <b>Receipt received</b>\nWaiting for admin approval.")
}

func PaymentApproved(lang i18n.Lang, planName string, expiresAt time.Time) string {
	date := expiresAt.Format("2006-01-02")
	return pick(lang,
		fmt.Sprintf("🎉 <b>To'lov tasdiqlandi!</b>\nTarif: %s\nAmal qilish muddati: %s", Escape(planName), date),
		fmt.Sprintf("🎉 <b>Оплата подтверждена!</b>\nТариф: %s\nДействует до: %s", Escape(planName), date),
		fmt.Sprintf("🎉 <b>Payment approved!</b>\nPlan: %s\nValid until: %s", Escape(planName), date))
}

func PaymentRejected(lang i18n.Lang, note string) string {
	head := pick(lang,
		"❌ <b>To'lov rad etildi</b>",
		"❌ <b>Оплата отклонена</b>",
		"❌ <b>Payment rejected</b>")
	if note == "" {
		return head
	}
	return head + "\n" + Escape(note)
}

func AdminPaymentRequest(paymentID string, userID int64, username, planName string, amount int64) string {
	user := fmt.Sprintf("<code>%d</code>", userID)
	if username != "" {
		user = "@" + Escape(username)
	}
	return fmt.Sprintf("🧾 <b>Новая заявка на оплату</b>\nID: <code>%s</code>\nПользователь: %s\nТариф: %s\nСумма: %d",
		Escape(paymentID), user, Escape(planName), amount)
}

func AdminStats(s *types.Stats) string {
	return fmt.Sprintf(
		"📊 <b>Статистика</b>\nПользователи: %d\nПремиум: %d\nКонвертаций сегодня: %d\nКонвертаций всего: %d\nНеудачных: %d\nЗаявок в ожидании: %d\nВыручка: %d",
		s.TotalUsers, s.PremiumUsers, s.ConversionsToday, s.TotalConversions, s.FailedConversions, s.PendingPayments, s.Revenue)
}

func AdminAlreadyProcessed(paymentID string) string {
	return fmt.Sprintf("⚠️ Заявка <code>%s</code> уже обработана.", Escape(paymentID))
}

func AdminApproved(paymentID string) string {
	return fmt.Sprintf("✅ Заявка <code>%s</code> подтверждена.", Escape(paymentID))
}

func AdminRejected(paymentID string) string {
	return fmt.Sprintf("❌ Заявка <code>%s</code> отклонена.", Escape(paymentID))
}

func BroadcastUsage() string {
	return "✍️ Использование: /broadcast <текст>"
}

func BroadcastReport(sent, failed int) string {
	return fmt.Sprintf("📣 <b>Рассылка завершена</b>\nОтправлено: %d\nОшибок: %d", sent, failed)
}

func Cancelled(lang i18n.Lang) string {
	return pick(lang, "✅ Bekor qilindi.", "✅ Отменено.", "✅ Cancelled.")
}

func NotAdmin(lang i18n.Lang) string {
	return pick(lang,
		"🚫 Bu buyruq faqat adminlar uchun.",
		"🚫 Команда только для администраторов.",
		"🚫 Admins only.")
}

func ErrorUnknownCommand(lang i18n.Lang) string {
	return pick(lang,
		"❓ <b>Buyruq topilmadi</b>",
		"❓ <b>Команда не найдена</b>",
		"❓ <b>Unknown command</b>")
}
