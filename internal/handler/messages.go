package handler

import "time"

// Message constants for the bot
const (
	// Command replies
	MSG_START = "Привіт! 👋 Я бот реєстрації на змагання.\n\n" +
		"Команди:\n" +
		"/events — список найближчих змагань\n" +
		"/register — реєстрація на змагання\n" +
		"/shop — магазин спорядження\n" +
		"/cart — ваш кошик\n" +
		"/help — допомога"

	MSG_HELP = "Оберіть змагання через /register і відповідайте на питання по черзі.\n" +
		"Покупки — через /shop. Якщо щось пішло не так, почніть заново з /register."

	MSG_INFO = "Бот приймає заявки на змагання та замовлення спорядження.\n" +
		"З питаннями звертайтеся до організаторів."

	MSG_EVENTS_HEADER = "🏆 Найближчі змагання:"
	MSG_CHOOSE_EVENT  = "Оберіть змагання для реєстрації:"
	MSG_NO_EVENTS     = "Наразі немає змагань із відкритою реєстрацією. Спробуйте пізніше."
	MSG_TRY_LATER     = "Не вдалося завантажити дані. Спробуйте пізніше."

	// Wizard messages
	MSG_SUMMARY_HEADER = "📋 Перевірте дані заявки:"
	MSG_CONFIRM        = "✅ Підтвердити"
	MSG_CANCEL         = "❌ Скасувати"
	MSG_RESTART        = "🔄 Заповнити заново"
	MSG_MULTI_DONE     = "Готово ✅"

	MSG_REG_SAVED = "✅ Заявку збережено! Дякуємо за реєстрацію."
	MSG_REG_FAILED = "❌ Не вдалося зберегти заявку. " +
		"Натисніть «Підтвердити» ще раз, щоб повторити спробу."
	MSG_REG_CANCELLED = "Реєстрацію скасовано. Почати заново — /register."

	// Shop messages
	MSG_SHOP_CATEGORIES = "🛍 Оберіть категорію:"
	MSG_SHOP_EMPTY      = "Магазин наразі порожній. Спробуйте пізніше."
	MSG_SHOP_CLOSED     = "Магазин закрито. Кошик збережено — повертайтеся через /shop."
	MSG_CART_HEADER     = "🛒 Ваш кошик:"
	MSG_CART_EMPTY      = "Кошик порожній"
	MSG_ADDED_TO_CART   = "Додано до кошика ✅"
	MSG_NAME_PROMPT     = "Як вас звати? (ПІБ для замовлення)"
	MSG_PHONE_PROMPT    = "Ваш номер телефону:"
	MSG_ORDER_SUMMARY   = "📦 Ваше замовлення:"

	MSG_ORDER_PLACED     = "✅ Замовлення прийнято! Ми зв'яжемося з вами для підтвердження."
	MSG_ORDER_FAILED     = "❌ Не вдалося оформити замовлення. Спробуйте пізніше через /shop."
	MSG_ORDER_PROCESSING = "⏳ Замовлення вже обробляється, зачекайте."

	// Keyboard labels
	MSG_BTN_CART        = "🛒 Кошик"
	MSG_BTN_CHECKOUT    = "💳 Оформити"
	MSG_BTN_ADD         = "➕ До кошика"
	MSG_BTN_BACK        = "⬅️ Назад"
	MSG_BTN_CLOSE       = "❌ Закрити"
	MSG_BTN_CONTINUE    = "🛍 Продовжити покупки"
	MSG_CHECK_GLYPH     = "✅"
	MSG_UNCHECK_GLYPH   = "⬜️"
)

// Timeout constants
const (
	TIMEOUT_STORE_READ  = 30 * time.Second
	TIMEOUT_STORE_WRITE = 30 * time.Second

	// Minimum time between accepted order confirmations from one chat.
	ORDER_DEBOUNCE_WINDOW = 15 * time.Second
)
