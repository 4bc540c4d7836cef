package fsm

const textGreeting = "Привет!\nЧтобы пользоваться ботом нужно войти в аккаунт /login " +
	"или зарегистрироваться /register"

const (
	textLoginOK           = "Успешная авторизация"
	textLoginNotFound     = "Твои данные не найдены. Нужно зарегистрироваться /register"
	textAskFirstName      = "Введи свое имя"
	textAskLastName       = "Спасибо!\n\nА теперь введи свою фамилию"
	textAlreadyRegistered = "Ты уже зарегистрирован. Войди в аккаунт /login"
	textCancel            = "Действие отменено"
	textLoginToEnter      = "Чтобы сохранить результат экзамена, нужно войти в аккаунт /login"
	textBadSubject        = "Доступны только предметы из списка"
	textBadScore          = "Введи корректные данные"
	textScoreSaved        = "Баллы сохранены"
	textScoreExists       = "Баллы по этому предмету уже сохранены"
	textSubjectGone       = "Этот предмет сейчас недоступен"
	textRegisterFirst     = "Сначала нужно зарегистрироваться /register"
	textLoginToView       = "Чтобы посмотреть сохраненные результаты, нужно войти в аккаунт /login"
	textNothingSaved      = "Пока ничего не сохранено"
	textUnknown           = "Не понимаю. Нажми /start, чтобы начать"
)

const textBadFirstName = "То, что ты отправил не похоже на имя\n\n" +
	"Пожалуйста, введи свое имя\n\n" +
	"Если ты хочешь прервать заполнение анкеты - нажми кнопку /cancel_register"

const textBadLastName = "То, что ты отправил не похоже на фамилию\n\n" +
	"Пожалуйста, введи свою фамилию\n\n" +
	"Если ты хочешь прервать заполнение анкеты - нажми кнопку /cancel"

const textRegistered = "Спасибо!\n\nРегистрация пройдена.\n\n" +
	"Можешь сохранить или посмотреть сохраненные баллы"

const textCancelRegister = "Ты отменил регистрацию\n\n" +
	"Чтобы снова перейти к заполнению анкеты - нажми кнопку /register"

const textChooseSubject = "Выбери предмет, для которого нужно сохранить баллы\n" +
	"Если ты хочешь прервать сохранение баллов - нажми кнопку /cancel"

const textAskScore = "Теперь введите сумму баллов\n" +
	"Если ты хочешь прервать сохранение баллов - нажми кнопку /cancel"
