package catalog

// The five systems of the questionnaire.
const (
	SystemBasic     = "基础信息"
	SystemPsyche    = "性格心理"
	SystemLifestyle = "兴趣生活"
	SystemSocial    = "社交关系"
	SystemGrowth    = "目标发展"
)

// dimensionTable is the canonical 25-dimension questionnaire. Order is
// the interview order; field keys are the only keys allowed in a
// session's collected data.
var dimensionTable = []Dimension{
	// 基础信息
	{
		ID: "basic_identity", Name: "基本资料", System: SystemBasic,
		Fields: []Field{
			{Key: "name", Label: "姓名"},
			{Key: "age", Label: "年龄"},
			{Key: "gender", Label: "性别"},
		},
		contactQuestion: "先从基本情况聊起吧，TA叫什么名字？大概多大年纪？",
		selfQuestion:    "先从基本情况聊起吧，你的名字和年龄方便说说吗？",
	},
	{
		ID: "appearance", Name: "外貌特征", System: SystemBasic,
		Fields: []Field{
			{Key: "appearance", Label: "外貌"},
			{Key: "height_build", Label: "身高体型"},
			{Key: "style", Label: "穿着风格"},
		},
		contactQuestion: "TA给你的第一印象是什么样的？外貌或穿着上有什么特点吗？",
		selfQuestion:    "你觉得自己的外在形象是什么样的？平时喜欢什么穿着风格？",
	},
	{
		ID: "career", Name: "职业学业", System: SystemBasic,
		Fields: []Field{
			{Key: "occupation", Label: "职业"},
			{Key: "company", Label: "工作单位"},
			{Key: "position", Label: "职位"},
		},
		contactQuestion: "TA现在是做什么工作的？在哪里上班？",
		selfQuestion:    "你现在从事什么工作？可以具体说说吗？",
	},
	{
		ID: "education", Name: "教育背景", System: SystemBasic,
		Fields: []Field{
			{Key: "education", Label: "学历"},
			{Key: "school", Label: "毕业院校"},
			{Key: "major", Label: "专业"},
		},
		contactQuestion: "你了解TA的教育背景吗？比如学历或者读过的学校。",
		selfQuestion:    "聊聊你的教育经历吧，学的是什么专业？",
	},
	{
		ID: "living", Name: "居住状况", System: SystemBasic,
		Fields: []Field{
			{Key: "location", Label: "所在城市"},
			{Key: "hometown", Label: "家乡"},
			{Key: "living_situation", Label: "居住情况"},
		},
		contactQuestion: "TA现在住在哪座城市？是本地人吗？",
		selfQuestion:    "你现在生活在哪座城市？家乡是哪里？",
	},

	// 性格心理
	{
		ID: "personality", Name: "性格特点", System: SystemPsyche,
		Fields: []Field{
			{Key: "personality", Label: "性格"},
			{Key: "temper", Label: "脾气"},
			{Key: "strengths", Label: "优点"},
		},
		contactQuestion: "TA是什么样性格的人？用几个词形容一下？",
		selfQuestion:    "你觉得自己是什么性格的人？",
	},
	{
		ID: "emotion", Name: "情绪模式", System: SystemPsyche,
		Fields: []Field{
			{Key: "emotion_pattern", Label: "情绪特点"},
			{Key: "stress_response", Label: "压力反应"},
			{Key: "comfort_way", Label: "安慰方式"},
		},
		contactQuestion: "TA情绪上有什么特点？遇到压力时通常什么反应？",
		selfQuestion:    "你的情绪状态通常怎么样？压力大的时候会怎么调节？",
	},
	{
		ID: "values", Name: "价值观念", System: SystemPsyche,
		Fields: []Field{
			{Key: "values", Label: "价值观"},
			{Key: "beliefs", Label: "信念"},
			{Key: "attitude_money", Label: "金钱观"},
		},
		contactQuestion: "TA有哪些比较看重的东西或者原则？",
		selfQuestion:    "你最看重什么？有什么一直坚持的原则吗？",
	},
	{
		ID: "thinking", Name: "思维方式", System: SystemPsyche,
		Fields: []Field{
			{Key: "thinking_style", Label: "思维方式"},
			{Key: "decision_style", Label: "决策风格"},
			{Key: "learning_style", Label: "学习方式"},
		},
		contactQuestion: "TA考虑问题和做决定时是什么风格？理性还是感性？",
		selfQuestion:    "你做决定时更偏理性分析还是跟着感觉走？",
	},
	{
		ID: "psychology", Name: "心理需求", System: SystemPsyche,
		Fields: []Field{
			{Key: "emotional_needs", Label: "情感需求"},
			{Key: "insecurities", Label: "在意的事"},
			{Key: "sense_of_security", Label: "安全感来源"},
		},
		contactQuestion: "你觉得TA内心比较需要什么？有什么特别在意的事吗？",
		selfQuestion:    "你内心深处最需要的是什么？什么事会让你特别在意？",
	},

	// 兴趣生活
	{
		ID: "hobbies", Name: "兴趣爱好", System: SystemLifestyle,
		Fields: []Field{
			{Key: "hobbies", Label: "兴趣爱好"},
			{Key: "sports", Label: "运动"},
			{Key: "collections", Label: "收藏"},
		},
		contactQuestion: "TA平时有什么兴趣爱好？喜欢运动吗？",
		selfQuestion:    "你平时有什么兴趣爱好？",
	},
	{
		ID: "habits", Name: "生活习惯", System: SystemLifestyle,
		Fields: []Field{
			{Key: "daily_routine", Label: "作息"},
			{Key: "habits", Label: "生活习惯"},
			{Key: "smoking_drinking", Label: "烟酒习惯"},
		},
		contactQuestion: "TA的生活习惯怎么样？比如作息、烟酒之类的。",
		selfQuestion:    "你的生活作息规律吗？有什么特别的生活习惯？",
	},
	{
		ID: "food", Name: "饮食偏好", System: SystemLifestyle,
		Fields: []Field{
			{Key: "food_preference", Label: "饮食偏好"},
			{Key: "favorite_food", Label: "喜欢的食物"},
			{Key: "taboo_food", Label: "忌口"},
		},
		contactQuestion: "TA在吃的方面有什么偏好？有忌口吗？",
		selfQuestion:    "你喜欢吃什么？有什么忌口的吗？",
	},
	{
		ID: "entertainment", Name: "娱乐休闲", System: SystemLifestyle,
		Fields: []Field{
			{Key: "entertainment", Label: "娱乐方式"},
			{Key: "media_taste", Label: "影音喜好"},
			{Key: "travel", Label: "旅行偏好"},
		},
		contactQuestion: "TA休闲时喜欢做什么？喜欢旅行或者看什么类型的影视吗？",
		selfQuestion:    "你放松的时候喜欢做什么？",
	},
	{
		ID: "consumption", Name: "消费观念", System: SystemLifestyle,
		Fields: []Field{
			{Key: "spending_style", Label: "消费观"},
			{Key: "favorite_brands", Label: "偏好品牌"},
		},
		contactQuestion: "TA花钱是什么风格？节俭还是大方？",
		selfQuestion:    "你的消费观是什么样的？",
	},

	// 社交关系
	{
		ID: "social_style", Name: "社交风格", System: SystemSocial,
		Fields: []Field{
			{Key: "social_style", Label: "社交风格"},
			{Key: "communication", Label: "沟通方式"},
			{Key: "conflict_style", Label: "冲突处理"},
		},
		contactQuestion: "TA在人群中是活跃的那种吗？和人沟通是什么风格？",
		selfQuestion:    "你在社交场合是什么样的？更主动还是更安静？",
	},
	{
		ID: "circle", Name: "朋友圈子", System: SystemSocial,
		Fields: []Field{
			{Key: "friends", Label: "朋友圈"},
			{Key: "key_people", Label: "重要他人"},
			{Key: "social_activities", Label: "社交活动"},
		},
		contactQuestion: "TA的朋友圈子是什么样的？有特别要好的朋友吗？",
		selfQuestion:    "你的朋友圈子大吗？对你最重要的人是谁？",
	},
	{
		ID: "relationship", Name: "与我的关系", System: SystemSocial,
		Fields: []Field{
			{Key: "relationship", Label: "关系"},
			{Key: "acquaintance", Label: "认识经过"},
			{Key: "closeness", Label: "亲密程度"},
		},
		contactQuestion: "你和TA是什么关系？你们是怎么认识的？",
		selfQuestion:    "在人际关系里你通常扮演什么角色？",
	},
	{
		ID: "interaction", Name: "互动经历", System: SystemSocial,
		Fields: []Field{
			{Key: "interaction", Label: "互动经历"},
			{Key: "shared_memories", Label: "共同回忆"},
			{Key: "meeting_frequency", Label: "见面频率"},
		},
		contactQuestion: "你们平时怎么互动？有什么印象深刻的共同经历吗？",
		selfQuestion:    "你和身边的人平时是怎么相处的？",
	},
	{
		ID: "family", Name: "家庭情况", System: SystemSocial,
		Fields: []Field{
			{Key: "family", Label: "家庭情况"},
			{Key: "marital_status", Label: "婚恋状况"},
			{Key: "children", Label: "子女情况"},
		},
		contactQuestion: "方便的话聊聊TA的家庭情况？比如婚恋状况。",
		selfQuestion:    "聊聊你的家庭吧，现在是什么状态？",
	},

	// 目标发展
	{
		ID: "goals", Name: "人生目标", System: SystemGrowth,
		Fields: []Field{
			{Key: "life_goals", Label: "人生目标"},
			{Key: "dreams", Label: "梦想"},
			{Key: "motivations", Label: "动力来源"},
		},
		contactQuestion: "TA有什么人生目标或者一直想实现的事吗？",
		selfQuestion:    "你有什么一直想实现的目标或梦想吗？",
	},
	{
		ID: "career_plan", Name: "事业规划", System: SystemGrowth,
		Fields: []Field{
			{Key: "career_plan", Label: "事业规划"},
			{Key: "ambitions", Label: "抱负"},
		},
		contactQuestion: "TA对事业上有什么规划或想法吗？",
		selfQuestion:    "你对自己的事业有什么规划？",
	},
	{
		ID: "recent", Name: "近期动态", System: SystemGrowth,
		Fields: []Field{
			{Key: "recent_events", Label: "近况"},
			{Key: "current_focus", Label: "当前关注"},
			{Key: "recent_mood", Label: "近期状态"},
		},
		contactQuestion: "TA最近在忙什么？状态怎么样？",
		selfQuestion:    "你最近在忙什么？状态如何？",
	},
	{
		ID: "challenges", Name: "困扰挑战", System: SystemGrowth,
		Fields: []Field{
			{Key: "challenges", Label: "困扰"},
			{Key: "worries", Label: "烦恼"},
			{Key: "health", Label: "健康状况"},
		},
		contactQuestion: "TA目前有什么困扰或者正在面对的挑战吗？",
		selfQuestion:    "你目前有什么困扰或者压力吗？",
	},
	{
		ID: "expectations", Name: "未来期待", System: SystemGrowth,
		Fields: []Field{
			{Key: "expectations", Label: "期待"},
			{Key: "plans", Label: "计划"},
			{Key: "expectations_of_me", Label: "对我的期待"},
		},
		contactQuestion: "TA对未来有什么期待？你觉得TA对你们的关系有什么期望？",
		selfQuestion:    "你对未来有什么期待和计划？",
	},
}
